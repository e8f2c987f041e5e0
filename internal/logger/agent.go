package logger

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// AgentLogger 记录与远端 agent 的每一轮请求、回复、失败与异常。
type AgentLogger interface {
	Request(agentID, sessionID, message string)
	Response(agentID, sessionID, text string)
	Failure(agentID, sessionID, reason string)
	Error(agentID, sessionID string, err error)
}

// AgentLog 是全局唯一的 agent 日志器实例。
var AgentLog AgentLogger = NewAgentLogger(nil)

// GlobalAgentLogger 返回全局 agent 日志实例。
func GlobalAgentLogger() AgentLogger {
	return AgentLog
}

// SetGlobalAgentLogger 覆盖全局实例，传入 nil 将重置为默认实现。
func SetGlobalAgentLogger(l AgentLogger) {
	if l == nil {
		l = NewAgentLogger(nil)
	}
	AgentLog = l
}

// DefaultAgentLogPath agent 调用日志的默认路径。
const DefaultAgentLogPath = "logs/agent.log"

var (
	agentLogMu         sync.Mutex
	agentLogConfigured bool
	agentLogCloser     io.Closer
	agentLogPath       string
)

// SetupAgentLog 把 AgentLog 指向独立文件，返回文件 closer 及实际路径。
// 多次调用只会在首次生效。
func SetupAgentLog(logPath string) (io.Closer, string, error) {
	agentLogMu.Lock()
	defer agentLogMu.Unlock()

	if agentLogConfigured {
		return agentLogCloser, agentLogPath, nil
	}
	if logPath == "" {
		logPath = DefaultAgentLogPath
	}
	entry, closer, resolved, err := SetupComponentFile("agent", logPath)
	agentLogConfigured = true
	agentLogPath = resolved
	if err != nil {
		return nil, resolved, err
	}
	SetGlobalAgentLogger(NewAgentLoggerEntry(entry))
	agentLogCloser = closer
	return closer, resolved, nil
}

// StdAgentLogger 使用 logrus 输出日志。
type StdAgentLogger struct {
	logger *logrus.Entry
}

// NewAgentLogger 构造默认的 agent 日志记录器；l 为 nil 时写入全局 logger。
func NewAgentLogger(l *Logger) *StdAgentLogger {
	if l == nil {
		l = Root()
	}
	return &StdAgentLogger{logger: logrus.NewEntry(l).WithField("component", "agent")}
}

// NewAgentLoggerEntry wraps an existing entry, e.g. one from SetupComponentFile.
func NewAgentLoggerEntry(entry *LogEntry) *StdAgentLogger {
	return &StdAgentLogger{logger: entry}
}

func (l *StdAgentLogger) Request(agentID, sessionID, message string) {
	l.printf(logrus.InfoLevel, "-> request agent=%s session=%s message=%s", agentID, sessionID, sanitize(message))
}

func (l *StdAgentLogger) Response(agentID, sessionID, text string) {
	l.printf(logrus.InfoLevel, "<- response agent=%s session=%s text=%s", agentID, sessionID, sanitize(text))
}

func (l *StdAgentLogger) Failure(agentID, sessionID, reason string) {
	l.printf(logrus.WarnLevel, "<- failure agent=%s session=%s reason=%s", agentID, sessionID, sanitize(reason))
}

func (l *StdAgentLogger) Error(agentID, sessionID string, err error) {
	l.printf(logrus.ErrorLevel, "!! error agent=%s session=%s err=%v", agentID, sessionID, err)
}

// NoopAgentLogger 忽略所有日志输出。
type NoopAgentLogger struct{}

func (NoopAgentLogger) Request(agentID, sessionID, message string) {}
func (NoopAgentLogger) Response(agentID, sessionID, text string)   {}
func (NoopAgentLogger) Failure(agentID, sessionID, reason string)  {}
func (NoopAgentLogger) Error(agentID, sessionID string, err error) {}

func (l *StdAgentLogger) printf(level logrus.Level, format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	if !l.logger.Logger.IsLevelEnabled(level) {
		return
	}

	msg := fmt.Sprintf(format, args...)
	entry := l.logger
	if caller := findCaller(); caller != "" {
		entry = entry.WithField("caller", caller)
	}
	entry.Log(level, msg)
}

func sanitize(text string) string {
	text = strings.ReplaceAll(text, "\n", `\n`)
	text = strings.ReplaceAll(text, "\r", `\r`)
	return text
}

// findCaller 跳过本文件与 agent 装饰器，定位真正发起调用的位置。
func findCaller() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.File != "" && !strings.HasSuffix(frame.File, "logger/agent.go") && !strings.HasSuffix(frame.File, "agent/logging.go") {
			return fmt.Sprintf("%s:%d", shortenFilePath(frame.File), frame.Line)
		}
		if !more {
			break
		}
	}
	return ""
}
