package agent

import (
	"context"
	"errors"
	"strings"
)

// EchoCaller is the offline fallback used when no transport is configured.
type EchoCaller struct {
	Prefix string
}

func (c EchoCaller) Call(_ context.Context, message, _ string, _ Options) (Result, error) {
	if strings.TrimSpace(message) == "" {
		return Result{}, errors.New("no message to echo")
	}
	return Succeeded(c.Prefix + message), nil
}
