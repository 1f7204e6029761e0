package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
	// BaseURL is the externally reachable address of this relay; stage
	// callback URLs are derived from it.
	BaseURL string `toml:"base_url"`
}

// STT contains configuration for the speech-to-text capability.
type STT struct {
	Endpoint       string `toml:"endpoint"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Translation contains configuration for the text translation capability.
type Translation struct {
	Endpoint       string `toml:"endpoint"`
	APIKey         string `toml:"api_key"`
	Formality      string `toml:"formality"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TTS contains configuration for the speech-synthesis capability.
type TTS struct {
	Endpoint       string            `toml:"endpoint"`
	APIKey         string            `toml:"api_key"`
	Model          string            `toml:"model"`
	DefaultVoice   string            `toml:"default_voice"`
	Voices         map[string]string `toml:"voices"` // target language -> voice id
	TimeoutSeconds int               `toml:"timeout_seconds"`
}

// VoiceID contains configuration for the voice-identity capability.
type VoiceID struct {
	Endpoint       string `toml:"endpoint"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Queue contains configuration for the stage message dispatcher.
type Queue struct {
	// DispatchRetries is the transport-level retry budget for most queues.
	DispatchRetries int `toml:"dispatch_retries"`
	// VoiceIDRetries is the smaller retry budget for the voice-id queue.
	VoiceIDRetries int `toml:"voice_id_retries"`
	RetryBackoff   int `toml:"retry_backoff_seconds"`
	DeliverTimeout int `toml:"deliver_timeout_seconds"`
}

// Results contains configuration for the polled result store.
type Results struct {
	RetentionSeconds int `toml:"retention_seconds"`
	SweepInterval    int `toml:"sweep_interval_seconds"`
}

// Publisher contains configuration for the realtime channel publisher.
type Publisher struct {
	Endpoint       string `toml:"endpoint"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Poller contains configuration for the client result poller.
type Poller struct {
	IntervalSeconds int `toml:"interval_seconds"`
	MaxAttempts     int `toml:"max_attempts"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Bridgit.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories, API bind address, callback base URL
//   - STT / Translation / TTS / VoiceID: external capability endpoints
//   - Queue: stage dispatcher retry and delivery settings
//   - Results: result store retention and eviction sweep
//   - Publisher: realtime channel publisher endpoint
//   - Poller: client polling interval and attempt ceiling
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	STT         STT         `toml:"stt"`
	Translation Translation `toml:"translation"`
	TTS         TTS         `toml:"tts"`
	VoiceID     VoiceID     `toml:"voiceid"`
	Queue       Queue       `toml:"queue"`
	Results     Results     `toml:"results"`
	Publisher   Publisher   `toml:"publisher"`
	Poller      Poller      `toml:"poller"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/bridgit/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("bridgit.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CallbackURL joins the configured base URL with a stage callback path.
func (c *Config) CallbackURL(path string) string {
	base := strings.TrimRight(strings.TrimSpace(c.Paths.BaseURL), "/")
	if base == "" {
		base = "http://" + strings.TrimSpace(c.Paths.APIBind)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// VoiceForLanguage returns the configured voice id for a target language,
// falling back to the default voice.
func (c *Config) VoiceForLanguage(lang string) string {
	normalized := strings.ToUpper(strings.TrimSpace(lang))
	if voice, ok := c.TTS.Voices[normalized]; ok && strings.TrimSpace(voice) != "" {
		return strings.TrimSpace(voice)
	}
	return strings.TrimSpace(c.TTS.DefaultVoice)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
