package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/scrum-assistant/pkg/models"
)

// ConfigFileName is the name of the global configuration file.
const ConfigFileName = ".scrumconfig"

// ConfigurationManager defines the interface for loading and validating the
// global configuration stored in .scrumconfig.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	// basePath is the directory where .scrumconfig resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with the defaults used
// when no .scrumconfig exists.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		UserName:           "John Doe",
		ThinkingDelay:      800 * time.Millisecond,
		DefaultPriority:    models.PriorityMedium,
		DefaultStoryPoints: 3,
		DefaultSprint:      "sprint-1",
		LivePoints:         false,
		LogLevel:           "info",
		LogFormat:          "text",
		Alerts: models.AlertConfig{
			BlockedHours:   24,
			StaleDays:      5,
			ReviewDays:     2,
			MaxBacklogSize: 10,
		},
	}
}

// LoadGlobalConfig reads .scrumconfig from the base path using Viper.
// If the file does not exist, defaults are returned.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("user.name", cfg.UserName)
	v.SetDefault("assistant.thinking_delay", cfg.ThinkingDelay.String())
	v.SetDefault("tasks.default_priority", string(cfg.DefaultPriority))
	v.SetDefault("tasks.default_story_points", cfg.DefaultStoryPoints)
	v.SetDefault("tasks.default_sprint", cfg.DefaultSprint)
	v.SetDefault("seed.path", cfg.SeedPath)
	v.SetDefault("sprint.live_points", cfg.LivePoints)
	v.SetDefault("events.path", cfg.EventsPath)
	v.SetDefault("log.level", cfg.LogLevel)
	v.SetDefault("log.format", cfg.LogFormat)
	v.SetDefault("alerts.blocked_hours", cfg.Alerts.BlockedHours)
	v.SetDefault("alerts.stale_days", cfg.Alerts.StaleDays)
	v.SetDefault("alerts.review_days", cfg.Alerts.ReviewDays)
	v.SetDefault("alerts.max_backlog_size", cfg.Alerts.MaxBacklogSize)
	v.SetDefault("notifications.enabled", cfg.Notifications.Enabled)
	v.SetDefault("notifications.slack.webhook_url", cfg.Notifications.SlackWebhookURL)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}

	cfg.UserName = v.GetString("user.name")
	cfg.ThinkingDelay = v.GetDuration("assistant.thinking_delay")
	cfg.DefaultPriority = models.Priority(v.GetString("tasks.default_priority"))
	cfg.DefaultStoryPoints = v.GetInt("tasks.default_story_points")
	cfg.DefaultSprint = v.GetString("tasks.default_sprint")
	cfg.SeedPath = v.GetString("seed.path")
	cfg.LivePoints = v.GetBool("sprint.live_points")
	cfg.EventsPath = v.GetString("events.path")
	cfg.LogLevel = v.GetString("log.level")
	cfg.LogFormat = v.GetString("log.format")
	cfg.Alerts = models.AlertConfig{
		BlockedHours:   v.GetInt("alerts.blocked_hours"),
		StaleDays:      v.GetInt("alerts.stale_days"),
		ReviewDays:     v.GetInt("alerts.review_days"),
		MaxBacklogSize: v.GetInt("alerts.max_backlog_size"),
	}
	cfg.Notifications = models.NotificationConfig{
		Enabled:         v.GetBool("notifications.enabled"),
		SlackWebhookURL: v.GetString("notifications.slack.webhook_url"),
	}

	return cfg, nil
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validLogFormats = map[string]bool{"text": true, "json": true}

// ValidateConfig checks cfg for invalid values and reports every problem
// found in one error.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.ThinkingDelay < 0 {
		errs = append(errs, fmt.Sprintf("assistant.thinking_delay must be non-negative, got %s", cfg.ThinkingDelay))
	}

	if !cfg.DefaultPriority.Valid() {
		errs = append(errs, fmt.Sprintf(
			"tasks.default_priority %q is invalid, must be one of: low, medium, high, critical",
			cfg.DefaultPriority,
		))
	}

	if cfg.DefaultStoryPoints < 0 {
		errs = append(errs, fmt.Sprintf("tasks.default_story_points must be non-negative, got %d", cfg.DefaultStoryPoints))
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		errs = append(errs, fmt.Sprintf("log.level %q is invalid, must be one of: debug, info, warn, error", cfg.LogLevel))
	}

	if !validLogFormats[strings.ToLower(cfg.LogFormat)] {
		errs = append(errs, fmt.Sprintf("log.format %q is invalid, must be text or json", cfg.LogFormat))
	}

	if cfg.Alerts.BlockedHours <= 0 {
		errs = append(errs, fmt.Sprintf("alerts.blocked_hours must be positive, got %d", cfg.Alerts.BlockedHours))
	}
	if cfg.Alerts.StaleDays <= 0 {
		errs = append(errs, fmt.Sprintf("alerts.stale_days must be positive, got %d", cfg.Alerts.StaleDays))
	}
	if cfg.Alerts.ReviewDays <= 0 {
		errs = append(errs, fmt.Sprintf("alerts.review_days must be positive, got %d", cfg.Alerts.ReviewDays))
	}
	if cfg.Alerts.MaxBacklogSize <= 0 {
		errs = append(errs, fmt.Sprintf("alerts.max_backlog_size must be positive, got %d", cfg.Alerts.MaxBacklogSize))
	}

	if cfg.Notifications.Enabled && cfg.Notifications.SlackWebhookURL != "" &&
		!strings.HasPrefix(cfg.Notifications.SlackWebhookURL, "https://") {
		errs = append(errs, "notifications.slack.webhook_url must use https")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
