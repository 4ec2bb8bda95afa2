package config

import "os"

// OverlayEnv applies process-environment overrides on top of the yaml
// config. ADMIN_ID and USERS_DATA_DIR mirror the deployment contract of
// the bot; empty env vars leave the yaml values alone.
func OverlayEnv(cfg *Config) {
	if v := os.Getenv("ADMIN_ID"); v != "" {
		cfg.Admin.ChatID = v
	}
	if v := os.Getenv("USERS_DATA_DIR"); v != "" {
		cfg.App.DataDir = v
	}
	if cfg.App.DataDir == "" {
		cfg.App.DataDir = "/users_data"
	}
}
