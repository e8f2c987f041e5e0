package agent

import (
	"context"

	"agentchat/internal/logger"
)

type loggedCaller struct {
	next Caller
	log  logger.AgentLogger
}

// WithLogging records every call through l (logger.AgentLog when nil).
func WithLogging(next Caller, l logger.AgentLogger) Caller {
	return loggedCaller{next: next, log: l}
}

func (c loggedCaller) logger() logger.AgentLogger {
	if c.log != nil {
		return c.log
	}
	return logger.GlobalAgentLogger()
}

func (c loggedCaller) Call(ctx context.Context, message, agentID string, opts Options) (Result, error) {
	l := c.logger()
	l.Request(agentID, opts.SessionID, message)
	res, err := c.next.Call(ctx, message, agentID, opts)
	switch {
	case err != nil:
		l.Error(agentID, opts.SessionID, err)
	case res.Success:
		l.Response(agentID, opts.SessionID, ReplyText(res))
	default:
		l.Failure(agentID, opts.SessionID, FailureText(res))
	}
	return res, err
}
