package config

const (
	defaultDataDir             = "~/.local/share/bridgit"
	defaultLogDir              = "~/.local/share/bridgit/logs"
	defaultAPIBind             = "127.0.0.1:7910"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultCapabilityTimeout   = 30
	defaultDispatchRetries     = 3
	defaultVoiceIDRetries      = 2
	defaultRetryBackoffSeconds = 2
	defaultDeliverTimeout      = 30
	defaultResultRetention     = 300
	defaultSweepInterval       = 60
	defaultPollInterval        = 2
	defaultPollMaxAttempts     = 30
	defaultTTSModel            = "flash-v2"
	defaultSTTModel            = "whisper-large-v3-turbo"
	defaultFormality           = "prefer_less"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		STT: STT{
			Model:          defaultSTTModel,
			TimeoutSeconds: defaultCapabilityTimeout,
		},
		Translation: Translation{
			Formality:      defaultFormality,
			TimeoutSeconds: defaultCapabilityTimeout,
		},
		TTS: TTS{
			Model:          defaultTTSModel,
			TimeoutSeconds: defaultCapabilityTimeout,
		},
		VoiceID: VoiceID{
			TimeoutSeconds: defaultCapabilityTimeout,
		},
		Queue: Queue{
			DispatchRetries: defaultDispatchRetries,
			VoiceIDRetries:  defaultVoiceIDRetries,
			RetryBackoff:    defaultRetryBackoffSeconds,
			DeliverTimeout:  defaultDeliverTimeout,
		},
		Results: Results{
			RetentionSeconds: defaultResultRetention,
			SweepInterval:    defaultSweepInterval,
		},
		Publisher: Publisher{
			TimeoutSeconds: 10,
		},
		Poller: Poller{
			IntervalSeconds: defaultPollInterval,
			MaxAttempts:     defaultPollMaxAttempts,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
