// Package logger 封装 logrus：统一格式、按组件命名的入口，以及写入 logs/ 下的独立文件。
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger/LogEntry/Fields 暴露底层类型，避免调用方直接依赖 logrus 包。
type Logger = logrus.Logger
type LogEntry = logrus.Entry
type Fields = logrus.Fields

const (
	// DefaultLogPath 默认日志文件路径。
	DefaultLogPath = "logs/agentchat.log"
	// LevelEnv 覆盖日志级别，例如 AGENTCHAT_LOG_LEVEL=debug。
	LevelEnv = "AGENTCHAT_LOG_LEVEL"
	// DirEnv 把相对日志路径改到指定目录下。
	DirEnv = "AGENTCHAT_LOG_DIR"
)

// promoted 这些字段在格式化时提到消息前面，不再出现在尾部。
var promoted = map[string]string{
	"type":            "type",
	"conversation_id": "conv",
}

// Configure 设置全局日志格式、caller 输出以及级别。
func Configure() {
	l := Root()
	l.SetReportCaller(true)
	l.SetFormatter(PlainFormatter{})
	l.SetLevel(LevelFromEnv(logrus.InfoLevel))
}

// LevelFromEnv 读取 AGENTCHAT_LOG_LEVEL，无法解析时返回 fallback。
func LevelFromEnv(fallback logrus.Level) logrus.Level {
	raw := strings.TrimSpace(os.Getenv(LevelEnv))
	if raw == "" {
		return fallback
	}
	lvl, err := logrus.ParseLevel(raw)
	if err != nil {
		return fallback
	}
	return lvl
}

// SetupFile 将全局日志输出重定向到 logPath（为空时用 DefaultLogPath）。
func SetupFile(logPath string) (io.Closer, string, error) {
	f, resolved, err := openLogFile(logPath)
	if err != nil {
		return nil, "", err
	}
	Root().SetOutput(f)
	return f, resolved, nil
}

// SetupComponentFile 创建写入独立文件的 logger，并附加 component 字段。
func SetupComponentFile(component, logPath string) (*LogEntry, io.Closer, string, error) {
	f, resolved, err := openLogFile(logPath)
	if err != nil {
		return nil, nil, "", err
	}
	l := logrus.New()
	l.SetReportCaller(true)
	l.SetFormatter(PlainFormatter{})
	l.SetLevel(Root().GetLevel())
	l.SetOutput(f)
	return withComponent(logrus.NewEntry(l), component), f, resolved, nil
}

// Root 返回全局共享的 logger。
func Root() *Logger {
	return logrus.StandardLogger()
}

// Named 为指定组件创建入口。
func Named(component string) *LogEntry {
	return withComponent(logrus.NewEntry(Root()), component)
}

func withComponent(entry *LogEntry, component string) *LogEntry {
	if component == "" {
		return entry
	}
	return entry.WithField("component", component)
}

// PlainFormatter 输出：caller [timestamp] [LEVEL] [component] [type=...] [conv=...] message fields。
type PlainFormatter struct{}

// Format 实现 logrus Formatter。
func (PlainFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if entry == nil {
		return []byte{}, nil
	}
	parts := make([]string, 0, 8)
	if caller := formatCaller(entry); caller != "" {
		parts = append(parts, caller)
	}
	parts = append(parts,
		"["+entry.Time.UTC().Format(time.RFC3339Nano)+"]",
		"["+strings.ToUpper(entry.Level.String())+"]",
	)
	if component, ok := entry.Data["component"].(string); ok && component != "" {
		parts = append(parts, "["+component+"]")
	}
	for _, key := range []string{"type", "conversation_id"} {
		if val, ok := entry.Data[key]; ok {
			parts = append(parts, fmt.Sprintf("[%s=%v]", promoted[key], val))
		}
	}
	parts = append(parts, entry.Message)
	if fields := formatFields(entry.Data); fields != "" {
		parts = append(parts, fields)
	}
	return []byte(strings.Join(parts, " ") + "\n"), nil
}

func formatCaller(entry *logrus.Entry) string {
	if entry.HasCaller() && entry.Caller != nil {
		return fmt.Sprintf("%s:%d", shortenFilePath(entry.Caller.File), entry.Caller.Line)
	}
	if caller, ok := entry.Data["caller"].(string); ok {
		return caller
	}
	return ""
}

func formatFields(fields logrus.Fields) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if _, skip := promoted[k]; skip || k == "component" || k == "caller" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " ")
}

// shortenFilePath 只保留仓库内的相对路径。
func shortenFilePath(file string) string {
	file = filepath.ToSlash(file)
	for _, marker := range []string{"/internal/", "/cmd/"} {
		if idx := strings.Index(file, marker); idx != -1 {
			return file[idx+1:]
		}
	}
	if idx := strings.Index(file, "/agentchat/"); idx != -1 {
		return file[idx+len("/agentchat/"):]
	}
	return filepath.Base(file)
}

// ResolvePath 把相对路径放到 AGENTCHAT_LOG_DIR 下（若设置了）。
func ResolvePath(logPath string) string {
	if logPath == "" {
		logPath = DefaultLogPath
	}
	if dir := strings.TrimSpace(os.Getenv(DirEnv)); dir != "" && !filepath.IsAbs(logPath) {
		return filepath.Join(dir, logPath)
	}
	return logPath
}

func openLogFile(logPath string) (*os.File, string, error) {
	resolved := ResolvePath(logPath)
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return nil, "", err
	}
	f, err := os.OpenFile(resolved, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, "", err
	}
	return f, resolved, nil
}
