// Package config resolves testsmith settings from defaults, an optional YAML
// file, a .env file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	llmclient "testsmith/internal/llmClient"
	"testsmith/internal/pyast"
)

const (
	DefaultConfigFile  = ".testsmith.yaml"
	DefaultEnvFile     = ".env"
	DefaultModel       = llmclient.DefaultGeminiModel
	DefaultOpenAIModel = llmclient.DefaultOpenAIModel
)

// ErrMissingCredential is returned when the selected provider has no API key.
var ErrMissingCredential = errors.New("config: missing API credential")

// Output controls where generated tests land and which sources are considered.
type Output struct {
	Dir       string `yaml:"dir" validate:"required"`
	File      string `yaml:"file" validate:"required,excludesall=/"`
	TestDir   string `yaml:"test_dir" validate:"required"`
	SourceExt string `yaml:"source_ext" validate:"required,startswith=."`
}

type Config struct {
	Provider     string        `yaml:"provider" validate:"required,oneof=gemini openai"`
	Model        string        `yaml:"model" validate:"required"`
	BaseURL      string        `yaml:"base_url" validate:"omitempty,url"`
	MaxRetries   int           `yaml:"max_retries" validate:"gte=1,lte=20"`
	InitialDelay time.Duration `yaml:"initial_delay" validate:"gte=0"`
	// RPS of 0 disables client-side rate limiting.
	RPS            float64 `yaml:"rps" validate:"gte=0"`
	Burst          int     `yaml:"burst" validate:"gte=1"`
	Workers        int     `yaml:"workers" validate:"gte=1,lte=64"`
	StripFences    bool    `yaml:"strip_fences"`
	SkipUnreadable bool    `yaml:"skip_unreadable"`
	Output         Output  `yaml:"output"`
	CoverageSource string  `yaml:"coverage_source" validate:"required"`
	// MaxFileSize bounds, in bytes, the Python files gen will parse.
	MaxFileSize int64 `yaml:"max_file_size" validate:"gte=1"`
	// ParseCache is the number of parsed files memoised; 0 disables it.
	ParseCache int `yaml:"parse_cache" validate:"gte=0"`
	// StaleMaxDepth limits how deep stale descends; 0 means no limit.
	StaleMaxDepth int `yaml:"stale_max_depth" validate:"gte=0"`

	geminiKey string
	openAIKey string
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Provider:     llmclient.ProviderGemini,
		Model:        DefaultModel,
		MaxRetries:   3,
		InitialDelay: time.Second,
		Burst:        1,
		Workers:      1,
		Output: Output{
			Dir:       "tests",
			File:      "test_generated.py",
			TestDir:   "tests",
			SourceExt: ".py",
		},
		CoverageSource: "src",
		MaxFileSize:    pyast.DefaultMaxFileSize,
		ParseCache:     pyast.DefaultCacheSize,
	}
}

// LoadOptions selects the files Load reads.
type LoadOptions struct {
	// ConfigFile defaults to DefaultConfigFile. A missing default file is
	// ignored; a missing file named explicitly is an error.
	ConfigFile string
	EnvFile    string
}

// Load builds a validated Config. Precedence, lowest first: defaults, the YAML
// file, .env, then process environment variables. Process variables always win
// over .env because godotenv never overrides existing values.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	path, explicit := opts.ConfigFile, opts.ConfigFile != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if err := cfg.mergeFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load %s: %w", envFile, err)
	}

	if err := cfg.mergeEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	if v := os.Getenv("TESTSMITH_PROVIDER"); v != "" {
		c.SetProvider(v)
	}
	if v := os.Getenv("TESTSMITH_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("TESTSMITH_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	var errs []error
	intVar := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s: %w", name, err))
				return
			}
			*dst = n
		}
	}
	intVar("TESTSMITH_MAX_RETRIES", &c.MaxRetries)
	intVar("TESTSMITH_BURST", &c.Burst)
	intVar("TESTSMITH_WORKERS", &c.Workers)
	intVar("TESTSMITH_PARSE_CACHE", &c.ParseCache)
	intVar("TESTSMITH_STALE_MAX_DEPTH", &c.StaleMaxDepth)
	if v := os.Getenv("TESTSMITH_MAX_FILE_SIZE"); v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("config: TESTSMITH_MAX_FILE_SIZE: %w", err))
		} else {
			c.MaxFileSize = n
		}
	}
	if v := os.Getenv("TESTSMITH_INITIAL_DELAY"); v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("config: TESTSMITH_INITIAL_DELAY: %w", err))
		} else {
			c.InitialDelay = d
		}
	}
	if v := os.Getenv("TESTSMITH_RPS"); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("config: TESTSMITH_RPS: %w", err))
		} else {
			c.RPS = f
		}
	}
	c.geminiKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	c.openAIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	return errors.Join(errs...)
}

// SetProvider switches provider. When the model is still the other
// provider's default it follows the switch.
func (c *Config) SetProvider(p string) {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == c.Provider {
		return
	}
	if p == llmclient.ProviderOpenAI && c.Model == DefaultModel {
		c.Model = DefaultOpenAIModel
	}
	if p == llmclient.ProviderGemini && c.Model == DefaultOpenAIModel {
		c.Model = DefaultModel
	}
	c.Provider = p
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// CredentialEnv names the environment variable holding the provider's key.
func CredentialEnv(provider string) string {
	if provider == llmclient.ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

// Credential returns the API key for the selected provider.
func (c *Config) Credential() (string, error) {
	key := c.geminiKey
	if c.Provider == llmclient.ProviderOpenAI {
		key = c.openAIKey
	}
	if key == "" {
		return "", fmt.Errorf("%w: set %s", ErrMissingCredential, CredentialEnv(c.Provider))
	}
	return key, nil
}

// ClientConfig assembles the provider settings. It fails with
// ErrMissingCredential when no key is available.
func (c *Config) ClientConfig() (llmclient.Config, error) {
	key, err := c.Credential()
	if err != nil {
		return llmclient.Config{}, err
	}
	return llmclient.Config{
		Provider: c.Provider,
		APIKey:   key,
		BaseURL:  c.BaseURL,
		Model:    c.Model,
	}, nil
}
