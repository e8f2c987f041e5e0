package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestListFeaturesAppliesOverrides(t *testing.T) {
	var out bytes.Buffer
	if err := listFeatures(&out, []string{"features.timestamps=false", "features.demo_on_start=true"}); err != nil {
		t.Fatalf("listFeatures error = %v", err)
	}
	rows := map[string][]string{}
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		fields := strings.Fields(line)
		rows[fields[0]] = fields
	}
	cases := map[string]string{
		"syntax_highlight": "true",
		"timestamps":       "false",
		"demo_on_start":    "true",
		"alt_screen":       "false",
	}
	for key, want := range cases {
		row, ok := rows[key]
		if !ok {
			t.Fatalf("missing feature %s in:\n%s", key, out.String())
		}
		if row[2] != want {
			t.Fatalf("%s enabled = %s, want %s", key, row[2], want)
		}
	}
}
