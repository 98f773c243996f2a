package config

const (
	defaultDataDir             = "~/.local/share/sprout"
	defaultLogDir              = "~/.local/share/sprout/logs"
	defaultPhotoDir            = "~/.local/share/sprout/photos"
	defaultAPIBind             = "127.0.0.1:7486"
	defaultSessionTTLHours     = 720
	defaultBcryptCost          = 10
	defaultGeminiModel         = "gemini-2.0-flash"
	defaultGeminiTemperature   = 0.2
	defaultEngineMode          = "gemini"
	defaultEngineTimeout       = 60
	defaultConfidenceThreshold = 0.8
	defaultSessionPollInterval = 5
	defaultErrorRetryInterval  = 10
	defaultHeartbeatInterval   = 15
	defaultHeartbeatTimeout    = 120
	defaultLogFormat           = "text"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			PhotoDir: defaultPhotoDir,
			APIBind:  defaultAPIBind,
		},
		Auth: Auth{
			SessionTTLHours:  defaultSessionTTLHours,
			RegistrationOpen: true,
			BcryptCost:       defaultBcryptCost,
		},
		Gemini: Gemini{
			Model:       defaultGeminiModel,
			Temperature: defaultGeminiTemperature,
		},
		Engine: Engine{
			Mode:                defaultEngineMode,
			TimeoutSeconds:      defaultEngineTimeout,
			ConfidenceThreshold: defaultConfidenceThreshold,
		},
		Workflow: Workflow{
			SessionPollInterval: defaultSessionPollInterval,
			ErrorRetryInterval:  defaultErrorRetryInterval,
			HeartbeatInterval:   defaultHeartbeatInterval,
			HeartbeatTimeout:    defaultHeartbeatTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
