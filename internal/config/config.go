package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port             string        `mapstructure:"PORT"`
	Env              string        `mapstructure:"ENV"`
	VetAPIBaseURL    string        `mapstructure:"VETAPI_BASE_URL"`
	VetAPIToken      string        `mapstructure:"VETAPI_TOKEN"`
	TranscriberURL   string        `mapstructure:"TRANSCRIBER_URL"`
	TranscriberLimit time.Duration `mapstructure:"TRANSCRIBER_TIMEOUT"`
	CaptureBridgeURL string        `mapstructure:"CAPTURE_BRIDGE_URL"`
	ClinicName       string        `mapstructure:"CLINIC_NAME"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("TRANSCRIBER_URL", "http://transcriber:8000")
	v.SetDefault("TRANSCRIBER_TIMEOUT", "60s")
	v.SetDefault("CAPTURE_BRIDGE_URL", "http://capture:8000")
	v.SetDefault("CLINIC_NAME", "VetVisit")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("VETAPI_BASE_URL")
	v.BindEnv("VETAPI_TOKEN")
	v.BindEnv("TRANSCRIBER_URL")
	v.BindEnv("TRANSCRIBER_TIMEOUT")
	v.BindEnv("CAPTURE_BRIDGE_URL")
	v.BindEnv("CLINIC_NAME")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.VetAPIBaseURL == "" {
		return nil, fmt.Errorf("VETAPI_BASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}
