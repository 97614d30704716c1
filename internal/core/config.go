// Package core contains the business logic for tareas, including the
// scoring engine, the kanban ranking ledger, project progress and
// next-action resolution, habit evaluation, and the managers that
// orchestrate them over the YAML stores.
package core

import (
	"fmt"
	"strings"

	"github.com/gacsesystems/tareas/pkg/models"
	"github.com/spf13/viper"
)

// ConfigurationManager loads and validates the global .tareasconfig file.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML configuration file.
type viperConfigManager struct {
	// basePath is the directory where .tareasconfig resides.
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .tareasconfig relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// defaultGlobalConfig returns a GlobalConfig populated with sensible defaults.
func defaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		DefaultArea:    "personal",
		DefaultContext: "",
		DefaultMoscow:  models.MoscowShould,
		DefaultHorizon: models.HorizonWeek,
		Alerts: models.AlertConfig{
			BlockedHours:      48,
			StaleDays:         7,
			FollowUpDays:      0,
			MaxBacklogSize:    100,
			MetricsWindowDays: 30,
		},
	}
}

// LoadGlobalConfig reads the .tareasconfig file from the base path using
// Viper. If the file does not exist, sensible defaults are returned.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := defaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(".tareasconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	// Set Viper defaults so missing keys fall back gracefully.
	v.SetDefault("defaults.area", cfg.DefaultArea)
	v.SetDefault("defaults.context", cfg.DefaultContext)
	v.SetDefault("defaults.moscow", string(cfg.DefaultMoscow))
	v.SetDefault("defaults.horizon", string(cfg.DefaultHorizon))
	v.SetDefault("alerts.blocked_threshold_hours", cfg.Alerts.BlockedHours)
	v.SetDefault("alerts.stale_threshold_days", cfg.Alerts.StaleDays)
	v.SetDefault("alerts.follow_up_threshold_days", cfg.Alerts.FollowUpDays)
	v.SetDefault("alerts.max_backlog_size", cfg.Alerts.MaxBacklogSize)
	v.SetDefault("alerts.metrics_window_days", cfg.Alerts.MetricsWindowDays)
	v.SetDefault("alerts.slack_webhook_url", cfg.Alerts.SlackWebhookURL)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file found, return defaults.
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .tareasconfig: %w", err)
	}

	cfg.DefaultArea = v.GetString("defaults.area")
	cfg.DefaultContext = v.GetString("defaults.context")
	cfg.DefaultMoscow = models.Moscow(v.GetString("defaults.moscow"))
	cfg.DefaultHorizon = models.Horizon(v.GetString("defaults.horizon"))
	cfg.Alerts.BlockedHours = v.GetInt("alerts.blocked_threshold_hours")
	cfg.Alerts.StaleDays = v.GetInt("alerts.stale_threshold_days")
	cfg.Alerts.FollowUpDays = v.GetInt("alerts.follow_up_threshold_days")
	cfg.Alerts.MaxBacklogSize = v.GetInt("alerts.max_backlog_size")
	cfg.Alerts.MetricsWindowDays = v.GetInt("alerts.metrics_window_days")
	cfg.Alerts.SlackWebhookURL = v.GetString("alerts.slack_webhook_url")

	return cfg, nil
}

// validMoscow is the set of allowed Moscow values.
var validMoscow = map[models.Moscow]bool{
	models.MoscowMust:   true,
	models.MoscowShould: true,
	models.MoscowCould:  true,
	models.MoscowWont:   true,
}

// validHorizons is the set of allowed Horizon values.
var validHorizons = map[models.Horizon]bool{
	models.HorizonWeek:    true,
	models.HorizonMonth:   true,
	models.HorizonQuarter: true,
	models.HorizonYear:    true,
	models.HorizonSomeday: true,
}

// ValidateConfig checks the configuration for invalid values and returns a
// clear error message identifying every problem found.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.DefaultMoscow != "" && !validMoscow[cfg.DefaultMoscow] {
		errs = append(errs, fmt.Sprintf(
			"defaults.moscow %q is invalid, must be one of: must, should, could, wont",
			cfg.DefaultMoscow,
		))
	}

	if cfg.DefaultHorizon != "" && !validHorizons[cfg.DefaultHorizon] {
		errs = append(errs, fmt.Sprintf(
			"defaults.horizon %q is invalid, must be one of: week, month, quarter, year, someday",
			cfg.DefaultHorizon,
		))
	}

	if cfg.Alerts.BlockedHours < 0 {
		errs = append(errs, fmt.Sprintf(
			"alerts.blocked_threshold_hours must be non-negative, got %d",
			cfg.Alerts.BlockedHours,
		))
	}

	if cfg.Alerts.StaleDays < 0 {
		errs = append(errs, fmt.Sprintf(
			"alerts.stale_threshold_days must be non-negative, got %d",
			cfg.Alerts.StaleDays,
		))
	}

	if cfg.Alerts.FollowUpDays < 0 {
		errs = append(errs, fmt.Sprintf(
			"alerts.follow_up_threshold_days must be non-negative, got %d",
			cfg.Alerts.FollowUpDays,
		))
	}

	if cfg.Alerts.MaxBacklogSize < 0 {
		errs = append(errs, fmt.Sprintf(
			"alerts.max_backlog_size must be non-negative, got %d",
			cfg.Alerts.MaxBacklogSize,
		))
	}

	if cfg.Alerts.MetricsWindowDays <= 0 {
		errs = append(errs, fmt.Sprintf(
			"alerts.metrics_window_days must be positive, got %d",
			cfg.Alerts.MetricsWindowDays,
		))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
