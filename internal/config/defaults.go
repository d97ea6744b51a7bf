package config

const (
	defaultConfigPath           = "~/.config/ogg2mp3/config.toml"
	defaultDataDir              = "~/.local/share/ogg2mp3"
	defaultLogDir               = "~/.local/share/ogg2mp3/logs"
	defaultContextMenu          = true
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Extension: Extension{
			ContextMenu: defaultContextMenu,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Success:        true,
			Failure:        true,
			Console:        true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
