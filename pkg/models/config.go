package models

// AlertConfig holds thresholds for the alert engine.
type AlertConfig struct {
	BlockedHours      int    `yaml:"blocked_threshold_hours"`
	StaleDays         int    `yaml:"stale_threshold_days"`
	FollowUpDays      int    `yaml:"follow_up_threshold_days"`
	MaxBacklogSize    int    `yaml:"max_backlog_size"`
	MetricsWindowDays int    `yaml:"metrics_window_days"`
	SlackWebhookURL   string `yaml:"slack_webhook_url"`
}

// GlobalConfig is read from .tareasconfig in the base directory.
type GlobalConfig struct {
	DefaultArea    string  `yaml:"default_area"`
	DefaultContext string  `yaml:"default_context"`
	DefaultMoscow  Moscow  `yaml:"default_moscow"`
	DefaultHorizon Horizon `yaml:"default_horizon"`

	Alerts AlertConfig `yaml:"alerts"`
}
