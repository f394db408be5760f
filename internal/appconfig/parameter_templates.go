// internal/appconfig/parameter_templates.go
package appconfig

import (
	"fmt"
	"strings"
)

// ProfileName identifies a sampling preset for code generation.
type ProfileName string

const (
	// ProfileBalanced is temperature 0.5 / top_p 0.5, the baseline the
	// diversity analysis compares other settings against.
	ProfileBalanced ProfileName = "balanced"
	// ProfileDeterministic minimizes run-to-run variation.
	ProfileDeterministic ProfileName = "deterministic"
	// ProfileExploratory widens sampling to surface more varied codes.
	ProfileExploratory ProfileName = "exploratory"
)

// ParamsForProfile selects a parameter profile by name. Empty selects
// ProfileBalanced; an unknown name is an error.
func ParamsForProfile(name string) (Parameters, error) {
	switch ProfileName(normalizeProfileName(name)) {
	case ProfileBalanced:
		return Parameters{Temperature: ptrFloat(0.5), TopP: ptrFloat(0.5)}, nil
	case ProfileDeterministic:
		return Parameters{Temperature: ptrFloat(0), TopP: ptrFloat(0.1), TopK: ptrInt(1), Seed: ptrInt(42)}, nil
	case ProfileExploratory:
		return Parameters{Temperature: ptrFloat(1.0), TopP: ptrFloat(0.95), RepeatPenalty: ptrFloat(1.1)}, nil
	default:
		return Parameters{}, fmt.Errorf("unknown parameterTemplate %q (want balanced, deterministic or exploratory)", name)
	}
}

// ApplyParameterTemplates fills each host's unset parameters from its
// profile. Explicit host parameters win.
func ApplyParameterTemplates(config *Config) error {
	for i := range config.Hosts {
		host := &config.Hosts[i]
		template, err := ParamsForProfile(host.ParameterTemplate)
		if err != nil {
			name := strings.TrimSpace(host.Name)
			if name == "" {
				name = host.URL
			}
			return fmt.Errorf("host %q: %w", name, err)
		}
		host.Parameters = mergeParams(template, host.Parameters)
	}
	return nil
}

func mergeParams(base Parameters, override Parameters) Parameters {
	if override.Temperature != nil {
		base.Temperature = override.Temperature
	}
	if override.TopK != nil {
		base.TopK = override.TopK
	}
	if override.TopP != nil {
		base.TopP = override.TopP
	}
	if override.MinP != nil {
		base.MinP = override.MinP
	}
	if override.RepeatLastN != nil {
		base.RepeatLastN = override.RepeatLastN
	}
	if override.RepeatPenalty != nil {
		base.RepeatPenalty = override.RepeatPenalty
	}
	if override.PresencePenalty != nil {
		base.PresencePenalty = override.PresencePenalty
	}
	if override.FrequencyPenalty != nil {
		base.FrequencyPenalty = override.FrequencyPenalty
	}
	if override.Seed != nil {
		base.Seed = override.Seed
	}
	return base
}

func normalizeProfileName(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "", "default", "t5p5":
		return string(ProfileBalanced)
	case "greedy", "stable":
		return string(ProfileDeterministic)
	case "creative", "explore":
		return string(ProfileExploratory)
	default:
		return s
	}
}

// Pointer helpers (keeps structs clean + preserves unset vs explicitly set).
func ptrInt(v int) *int           { return &v }
func ptrFloat(v float64) *float64 { return &v }
