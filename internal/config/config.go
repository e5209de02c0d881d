package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the tool configuration loaded from migration.yml plus env and
// flag overrides.
type Config struct {
	Source    Tenant `mapstructure:"source"`
	Target    Tenant `mapstructure:"target"`
	Snapshot  string `mapstructure:"snapshot"`   // snapshot file path
	DeviceMap string `mapstructure:"device_map"` // old→new serial YAML file
	BaseURL   string `mapstructure:"base_url"`   // override for testing
	LogLevel  string `mapstructure:"log_level"`
}

// Tenant identifies one organization/network pair and the API key that can
// reach it. Names are cross-checked against IDs before any run.
type Tenant struct {
	APIKey      string `mapstructure:"api_key"`
	OrgID       string `mapstructure:"org_id"`
	OrgName     string `mapstructure:"org_name"`
	NetworkID   string `mapstructure:"network_id"`
	NetworkName string `mapstructure:"network_name"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Snapshot: "snapshot.json",
		LogLevel: "info",
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// API keys are usually kept out of the config file
	if cfg.Source.APIKey == "" {
		cfg.Source.APIKey = os.Getenv("MERAKI_SOURCE_API_KEY")
	}
	if cfg.Target.APIKey == "" {
		cfg.Target.APIKey = os.Getenv("MERAKI_TARGET_API_KEY")
	}

	return cfg, nil
}

// LoadDeviceMap reads a YAML file mapping old device serials to the serials
// claimed on the target network.
func LoadDeviceMap(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading device map: %w", err)
	}
	var mapping map[string]string
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("decoding device map %s: %w", path, err)
	}
	return mapping, nil
}
