package openai

import (
	"net/url"
	"strings"
)

// normalizeBaseURL 去掉 endpoint 后缀并保证以 /v1 结尾。
func normalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil {
		return raw
	}

	path := strings.TrimRight(parsed.Path, "/")
	path = strings.TrimSuffix(path, "/chat/completions")
	path = strings.TrimSuffix(path, "/completions")
	path = strings.TrimRight(path, "/")

	if !strings.HasSuffix(path, "/v1") {
		path += "/v1"
	}
	for strings.Contains(path, "/v1/v1") {
		path = strings.ReplaceAll(path, "/v1/v1", "/v1")
	}

	parsed.Path = path
	return parsed.String()
}

// BaseURL exposes the normalized endpoint root, used by ping.
func BaseURL(raw string) string {
	return normalizeBaseURL(raw)
}
