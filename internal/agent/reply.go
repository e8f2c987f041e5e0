package agent

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	NoResponseText        = "No response received"
	GenericFailureText    = "An error occurred. Please try again."
	ConnectionFailureText = "Failed to get a response. Please check your connection and try again."
)

// replyPaths 按优先级排列的回复字段。
var replyPaths = []string{
	"result.response_text",
	"message",
	"result.text",
	"result.message",
}

// ReplyText extracts the reply from a successful result. The first non-empty
// string along replyPaths wins, then a bare string "result".
func ReplyText(res Result) string {
	if len(res.Response) == 0 || !gjson.ValidBytes(res.Response) {
		return NoResponseText
	}
	for _, path := range replyPaths {
		if v := gjson.GetBytes(res.Response, path); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	if v := gjson.GetBytes(res.Response, "result"); v.Type == gjson.String && v.Str != "" {
		return v.Str
	}
	return NoResponseText
}

// FailureText picks the message shown for a failure reported by the agent.
func FailureText(res Result) string {
	if res.Error != "" {
		return res.Error
	}
	if len(res.Response) > 0 && gjson.ValidBytes(res.Response) {
		if v := gjson.GetBytes(res.Response, "message"); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return GenericFailureText
}

// Succeeded wraps reply text in the payload shape ReplyText reads first.
func Succeeded(text string) Result {
	raw, err := sjson.SetBytes([]byte(`{}`), "result.response_text", text)
	if err != nil {
		return Result{Success: true}
	}
	return Result{Success: true, Response: raw}
}

// Failed builds an agent-reported failure. detail, when set, is exposed as
// response.message.
func Failed(reason, detail string) Result {
	res := Result{Error: reason}
	if detail != "" {
		if raw, err := sjson.SetBytes([]byte(`{}`), "message", detail); err == nil {
			res.Response = raw
		}
	}
	return res
}
