package main

import "strings"

// stringSlice 收集可重复的 flag，例如 -c key=value。
type stringSlice []string

func (s *stringSlice) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(*s, ",")
}

func (s *stringSlice) Set(v string) error {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	*s = append(*s, v)
	return nil
}
