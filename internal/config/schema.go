package config

// ServerConfig is the top-level YAML structure.
type ServerConfig struct {
	Listen  string      `yaml:"listen"`
	DBPath  string      `yaml:"db_path"`
	Monitor MonitorConf `yaml:"monitor"`
	Alerts  AlertsConf  `yaml:"alerts"`
}

// MonitorConf holds defaults for rule monitors.
type MonitorConf struct {
	// IntervalMs is the default sampling interval for monitors started
	// without a cron schedule.
	IntervalMs int `yaml:"interval_ms"`
	// Schedule is an optional cron expression applied to monitors started
	// without a schedule or interval of their own.
	Schedule string `yaml:"schedule"`
}

// AlertsConf configures alert delivery backends.
type AlertsConf struct {
	WebhookURL string `yaml:"webhook_url"`
}
