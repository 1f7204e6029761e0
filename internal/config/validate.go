package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateResults(); err != nil {
		return err
	}
	if err := c.validatePoller(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateTimeouts()
}

func (c *Config) validateQueue() error {
	if c.Queue.DispatchRetries < 0 {
		return errors.New("queue.dispatch_retries must not be negative")
	}
	if c.Queue.VoiceIDRetries < 0 {
		return errors.New("queue.voice_id_retries must not be negative")
	}
	return ensurePositiveMap(map[string]int{
		"queue.retry_backoff_seconds":   c.Queue.RetryBackoff,
		"queue.deliver_timeout_seconds": c.Queue.DeliverTimeout,
	})
}

func (c *Config) validateResults() error {
	return ensurePositiveMap(map[string]int{
		"results.retention_seconds":      c.Results.RetentionSeconds,
		"results.sweep_interval_seconds": c.Results.SweepInterval,
	})
}

func (c *Config) validatePoller() error {
	return ensurePositiveMap(map[string]int{
		"poller.interval_seconds": c.Poller.IntervalSeconds,
		"poller.max_attempts":     c.Poller.MaxAttempts,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"stt.timeout_seconds":         c.STT.TimeoutSeconds,
		"translation.timeout_seconds": c.Translation.TimeoutSeconds,
		"tts.timeout_seconds":         c.TTS.TimeoutSeconds,
		"voiceid.timeout_seconds":     c.VoiceID.TimeoutSeconds,
		"publisher.timeout_seconds":   c.Publisher.TimeoutSeconds,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
