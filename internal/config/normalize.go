package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCapabilities()
	c.normalizePublisher()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	c.Paths.BaseURL = strings.TrimSpace(c.Paths.BaseURL)
	return nil
}

func (c *Config) normalizeCapabilities() {
	c.STT.Endpoint = strings.TrimSpace(c.STT.Endpoint)
	c.Translation.Endpoint = strings.TrimSpace(c.Translation.Endpoint)
	c.TTS.Endpoint = strings.TrimSpace(c.TTS.Endpoint)
	c.VoiceID.Endpoint = strings.TrimSpace(c.VoiceID.Endpoint)

	if c.STT.APIKey == "" {
		if value, ok := os.LookupEnv("BRIDGIT_STT_API_KEY"); ok {
			c.STT.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Translation.APIKey == "" {
		if value, ok := os.LookupEnv("BRIDGIT_TRANSLATION_API_KEY"); ok {
			c.Translation.APIKey = strings.TrimSpace(value)
		}
	}
	if c.TTS.APIKey == "" {
		if value, ok := os.LookupEnv("BRIDGIT_TTS_API_KEY"); ok {
			c.TTS.APIKey = strings.TrimSpace(value)
		}
	}
	if c.VoiceID.APIKey == "" {
		if value, ok := os.LookupEnv("BRIDGIT_VOICEID_API_KEY"); ok {
			c.VoiceID.APIKey = strings.TrimSpace(value)
		}
	}

	normalized := make(map[string]string, len(c.TTS.Voices))
	for lang, voice := range c.TTS.Voices {
		key := strings.ToUpper(strings.TrimSpace(lang))
		if key == "" {
			continue
		}
		normalized[key] = strings.TrimSpace(voice)
	}
	c.TTS.Voices = normalized
}

func (c *Config) normalizePublisher() {
	c.Publisher.Endpoint = strings.TrimSpace(c.Publisher.Endpoint)
	if c.Publisher.APIKey == "" {
		if value, ok := os.LookupEnv("BRIDGIT_PUBLISHER_API_KEY"); ok {
			c.Publisher.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
