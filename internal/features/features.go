package features

import "sort"

// Stage 描述功能开关所处的生命周期阶段。
type Stage string

const (
	StageStable       Stage = "stable"
	StageBeta         Stage = "beta"
	StageExperimental Stage = "experimental"
	StageDeprecated   Stage = "deprecated"
)

// Keys of the feature flags exposed by the CLI.
const (
	SyntaxHighlight = "syntax_highlight"
	Timestamps      = "timestamps"
	DemoOnStart     = "demo_on_start"
	AltScreen       = "alt_screen"
)

// Spec describes a feature flag exposed by the CLI.
type Spec struct {
	Key            string
	Stage          Stage
	DefaultEnabled bool
	Description    string
}

var Specs = []Spec{
	{Key: SyntaxHighlight, Stage: StageStable, DefaultEnabled: true, Description: "highlight fenced code in replies"},
	{Key: Timestamps, Stage: StageStable, DefaultEnabled: true, Description: "show message times in the transcript"},
	{Key: DemoOnStart, Stage: StageExperimental, DefaultEnabled: false, Description: "start with the sample conversations loaded"},
	{Key: AltScreen, Stage: StageBeta, DefaultEnabled: false, Description: "run the TUI on the alternate screen"},
}

var known = func() map[string]Spec {
	m := make(map[string]Spec, len(Specs))
	for _, spec := range Specs {
		m[spec.Key] = spec
	}
	return m
}()

// IsKnown reports whether the feature key is recognized.
func IsKnown(key string) bool {
	_, ok := known[key]
	return ok
}

// StageFor returns the lifecycle stage for a feature, defaulting to experimental.
func StageFor(key string) Stage {
	if spec, ok := known[key]; ok {
		return spec.Stage
	}
	return StageExperimental
}

// DefaultEnabled reports the default value for the given feature key.
func DefaultEnabled(key string) bool {
	if spec, ok := known[key]; ok {
		return spec.DefaultEnabled
	}
	return false
}

// Set is a resolved view of the flags: defaults plus explicit overrides.
type Set struct {
	overrides map[string]bool
}

// NewSet resolves overrides (unknown keys are ignored).
func NewSet(overrides map[string]bool) Set {
	m := make(map[string]bool, len(overrides))
	for k, v := range overrides {
		if IsKnown(k) {
			m[k] = v
		}
	}
	return Set{overrides: m}
}

func (s Set) Enabled(key string) bool {
	if v, ok := s.overrides[key]; ok {
		return v
	}
	return DefaultEnabled(key)
}

// EnabledKeys returns the enabled keys in sorted order.
func (s Set) EnabledKeys() []string {
	var out []string
	for _, spec := range Specs {
		if s.Enabled(spec.Key) {
			out = append(out, spec.Key)
		}
	}
	sort.Strings(out)
	return out
}
