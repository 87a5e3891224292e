package models

import "time"

// AlertConfig holds the thresholds used by the board alert engine.
type AlertConfig struct {
	BlockedHours   int `yaml:"blocked_hours" mapstructure:"blocked_hours"`
	StaleDays      int `yaml:"stale_days" mapstructure:"stale_days"`
	ReviewDays     int `yaml:"review_days" mapstructure:"review_days"`
	MaxBacklogSize int `yaml:"max_backlog_size" mapstructure:"max_backlog_size"`
}

// NotificationConfig controls where action confirmations are pushed.
type NotificationConfig struct {
	Enabled         bool   `yaml:"enabled" mapstructure:"enabled"`
	SlackWebhookURL string `yaml:"slack_webhook_url,omitempty" mapstructure:"slack_webhook_url"`
}

// GlobalConfig holds system-wide settings read from .scrumconfig via Viper.
type GlobalConfig struct {
	UserName           string             `yaml:"user_name" mapstructure:"user_name"`
	ThinkingDelay      time.Duration      `yaml:"thinking_delay" mapstructure:"thinking_delay"`
	DefaultPriority    Priority           `yaml:"default_priority" mapstructure:"default_priority"`
	DefaultStoryPoints int                `yaml:"default_story_points" mapstructure:"default_story_points"`
	DefaultSprint      string             `yaml:"default_sprint" mapstructure:"default_sprint"`
	SeedPath           string             `yaml:"seed_path,omitempty" mapstructure:"seed_path"`
	LivePoints         bool               `yaml:"live_points" mapstructure:"live_points"`
	EventsPath         string             `yaml:"events_path,omitempty" mapstructure:"events_path"`
	LogLevel           string             `yaml:"log_level" mapstructure:"log_level"`
	LogFormat          string             `yaml:"log_format" mapstructure:"log_format"`
	Alerts             AlertConfig        `yaml:"alerts" mapstructure:"alerts"`
	Notifications      NotificationConfig `yaml:"notifications" mapstructure:"notifications"`
}
