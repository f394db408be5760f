// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// legacyConfigPath is the path checked when the default path is missing.
	legacyConfigPath = "config.json"
	// defaultRequestTimeout is the default timeout for HTTP requests.
	defaultRequestTimeout = 600 * time.Second

	defaultMatchThreshold  = 80
	defaultMatchColumn     = "excerpt"
	defaultDiversityRuns   = 10
	defaultChunkSizeWords  = 200
	defaultChunkOverlap    = 50
	defaultTranscriptGlob  = "**/*.{txt,pdf}"
	defaultLogFile         = "thematic.log"
	defaultResearchPrompts = "What are the participants' experiences?"
)

// Config represents the top-level application configuration.
type Config struct {
	Hosts          []Host            `json:"hosts" mapstructure:"hosts"`
	Debug          bool              `json:"debug" mapstructure:"debug"`
	Match          MatchConfig       `json:"match" mapstructure:"match"`
	Diversity      DiversityConfig   `json:"diversity" mapstructure:"diversity"`
	Transcripts    TranscriptsConfig `json:"transcripts" mapstructure:"transcripts"`
	TimeoutSeconds int               `json:"timeout,omitempty" mapstructure:"timeout"`
	ExportPath     string            `json:"export,omitempty" mapstructure:"export"`
	LogFile        string            `json:"logFile,omitempty" mapstructure:"logFile"`
	ConfigPath     string            `json:"-" mapstructure:"-"`
}

// MatchConfig controls excerpt verification.
type MatchConfig struct {
	// Threshold is a pointer so an explicit 0 survives decoding.
	Threshold *int   `json:"threshold,omitempty" mapstructure:"threshold"`
	Parallel  bool   `json:"parallel" mapstructure:"parallel"`
	Workers   int    `json:"workers,omitempty" mapstructure:"workers"`
	Policy    string `json:"policy,omitempty" mapstructure:"policy"`
	Column    string `json:"column,omitempty" mapstructure:"column"`
}

// DiversityConfig controls repeated code generation.
type DiversityConfig struct {
	Runs     int  `json:"runs,omitempty" mapstructure:"runs"`
	FailFast bool `json:"failFast" mapstructure:"failFast"`
	// ResearchQuestions steer code generation for every chunk.
	ResearchQuestions string `json:"researchQuestions,omitempty" mapstructure:"researchQuestions"`
}

// TranscriptsConfig controls transcript discovery and chunking.
type TranscriptsConfig struct {
	Dir          string `json:"dir,omitempty" mapstructure:"dir"`
	Glob         string `json:"glob,omitempty" mapstructure:"glob"`
	ChunkSize    int    `json:"chunkSize,omitempty" mapstructure:"chunkSize"`
	ChunkOverlap *int   `json:"chunkOverlap,omitempty" mapstructure:"chunkOverlap"`
}

// Host represents a single host that can serve language models.
type Host struct {
	Name              string     `json:"name" mapstructure:"name"`
	URL               string     `json:"url" mapstructure:"url"`
	Type              string     `json:"type" mapstructure:"type"`
	Models            []string   `json:"models" mapstructure:"models"`
	SystemPrompt      string     `json:"systemprompt" mapstructure:"systemprompt"`
	ParameterTemplate string     `json:"parameterTemplate,omitempty" mapstructure:"parameterTemplate"`
	Parameters        Parameters `json:"parameters" mapstructure:"parameters"`
}

// Parameters defines the set of parameters that can be used to control a language model's behavior.
type Parameters struct {
	TopK             *int     `json:"top_k,omitempty" mapstructure:"top_k"`
	TopP             *float64 `json:"top_p,omitempty" mapstructure:"top_p"`
	MinP             *float64 `json:"min_p,omitempty" mapstructure:"min_p"`
	RepeatLastN      *int     `json:"repeat_last_n,omitempty" mapstructure:"repeat_last_n"`
	Temperature      *float64 `json:"temperature,omitempty" mapstructure:"temperature"`
	RepeatPenalty    *float64 `json:"repeat_penalty,omitempty" mapstructure:"repeat_penalty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty" mapstructure:"presence_penalty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty" mapstructure:"frequency_penalty"`
	Seed             *int     `json:"seed,omitempty" mapstructure:"seed"`
}

// RequestTimeout returns the timeout duration for HTTP requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return defaultLogFile
}

// MatchThreshold returns the acceptance threshold, 80 when unset.
func (c Config) MatchThreshold() int {
	if c.Match.Threshold == nil {
		return defaultMatchThreshold
	}
	return *c.Match.Threshold
}

// MatchWorkers returns the parallel pool size, GOMAXPROCS when unset.
func (c Config) MatchWorkers() int {
	if c.Match.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Match.Workers
}

// MatchColumn returns the row key holding excerpts.
func (c Config) MatchColumn() string {
	if col := strings.TrimSpace(c.Match.Column); col != "" {
		return col
	}
	return defaultMatchColumn
}

// DiversityRuns returns how many generations a diversity analysis performs.
func (c Config) DiversityRuns() int {
	if c.Diversity.Runs <= 0 {
		return defaultDiversityRuns
	}
	return c.Diversity.Runs
}

// ResearchQuestions returns the questions passed to code generation.
func (c Config) ResearchQuestions() string {
	if q := strings.TrimSpace(c.Diversity.ResearchQuestions); q != "" {
		return q
	}
	return defaultResearchPrompts
}

// TranscriptGlob returns the doublestar pattern used to discover transcripts.
func (c Config) TranscriptGlob() string {
	if g := strings.TrimSpace(c.Transcripts.Glob); g != "" {
		return g
	}
	return defaultTranscriptGlob
}

// ChunkSizeWords returns the chunk window size in words.
func (c Config) ChunkSizeWords() int {
	if c.Transcripts.ChunkSize <= 0 {
		return defaultChunkSizeWords
	}
	return c.Transcripts.ChunkSize
}

// ChunkOverlapWords returns the overlap between consecutive chunks in words.
func (c Config) ChunkOverlapWords() int {
	if c.Transcripts.ChunkOverlap == nil {
		return defaultChunkOverlap
	}
	return *c.Transcripts.ChunkOverlap
}

// Validate checks value ranges that accessors cannot default away.
func (c Config) Validate() error {
	if th := c.MatchThreshold(); th < 0 || th > 100 {
		return fmt.Errorf("match.threshold must be between 0 and 100, got %d", th)
	}
	switch strings.ToLower(strings.TrimSpace(c.Match.Policy)) {
	case "", "best", "first":
	default:
		return fmt.Errorf("match.policy must be best or first, got %q", c.Match.Policy)
	}
	if overlap := c.ChunkOverlapWords(); overlap < 0 || overlap >= c.ChunkSizeWords() {
		return fmt.Errorf("transcripts.chunkOverlap must be in [0, chunkSize), got %d", overlap)
	}
	for i, h := range c.Hosts {
		if strings.TrimSpace(h.URL) == "" {
			return fmt.Errorf("hosts[%d] (%s): url is required", i, h.Name)
		}
	}
	return nil
}

// HostFor picks the host serving model, or the first host (and its first
// model) when model is empty.
func (c Config) HostFor(model string) (Host, string, error) {
	if len(c.Hosts) == 0 {
		return Host{}, "", errors.New("config must contain at least one host")
	}
	if model == "" {
		h := c.Hosts[0]
		if len(h.Models) == 0 {
			return Host{}, "", fmt.Errorf("host %q lists no models", h.Name)
		}
		return h, h.Models[0], nil
	}
	for _, h := range c.Hosts {
		for _, m := range h.Models {
			if m == model {
				return h, m, nil
			}
		}
	}
	return Host{}, "", fmt.Errorf("no host serves model %q", model)
}

// Load reads the application configuration from the specified path, with fallback to a legacy path.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err == nil {
		config.ConfigPath = path
		return config, config.Validate()
	}

	if errors.Is(err, os.ErrNotExist) {
		if path == DefaultConfigPath {
			config, legacyErr := loadFromPath(legacyConfigPath)
			if legacyErr == nil {
				config.ConfigPath = legacyConfigPath
				return config, config.Validate()
			}
			if errors.Is(legacyErr, os.ErrNotExist) {
				return Config{}, fmt.Errorf("no configuration file found (searched %q and %q)", DefaultConfigPath, legacyConfigPath)
			}
			return Config{}, fmt.Errorf("could not read config file %q: %w", legacyConfigPath, legacyErr)
		}
		return Config{}, fmt.Errorf("no configuration file found at %q", path)
	}

	return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
}

// loadFromPath is a helper function that loads the configuration from a specific file path.
func loadFromPath(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return Config{}, err
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = int(defaultRequestTimeout.Seconds())
	}
	if err := ApplyParameterTemplates(&config); err != nil {
		return Config{}, err
	}

	return config, nil
}
