package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces the env vars read when no config file is given
const EnvPrefix = "ENTRYPOINT"

// LoadRPCConfig loads the RPC config from the given toml file, or from
// ENTRYPOINT_* env vars when configPath is nil
func LoadRPCConfig(configPath *string) (*RPCConfig, error) {
	v := viper.New()
	v.SetDefault("rate_per_minute", 120)
	v.SetDefault("max_concurrent_requests", 100)
	v.SetDefault("service_name", "spectra-entry-point")
	v.SetDefault("environment", "LOCAL")
	v.SetDefault("deployment_file", "deployment.toml")

	source := "env"
	if configPath == nil {
		useEnv(v)
	} else {
		source = *configPath
		if err := useFile(v, *configPath); err != nil {
			return nil, err
		}
	}

	var config RPCConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode %s config: %w", source, err)
	}
	if err := verifyConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", source, err)
	}
	return &config, nil
}

func useEnv(v *viper.Viper) {
	// .env is optional, the env can come from docker or systemd
	_ = godotenv.Load()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// Unmarshal only sees env values for keys viper already knows about
	for _, key := range configKeys() {
		_ = v.BindEnv(key)
	}
}

func useFile(v *viper.Viper, configPath string) error {
	if filepath.Ext(configPath) != ".toml" {
		return fmt.Errorf("config file %s must be a toml file", configPath)
	}
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// configKeys lists the mapstructure keys of RPCConfig
func configKeys() []string {
	t := reflect.TypeOf(RPCConfig{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if key, _, _ := strings.Cut(t.Field(i).Tag.Get("mapstructure"), ","); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

func verifyConfig(config *RPCConfig) error {
	var errs []error
	if config.Port <= 0 || config.Port > 65535 {
		errs = append(errs, errors.New("port must be between 1 and 65535"))
	}
	if config.Host == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if len(config.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("allowed_origins is required"))
	}
	if config.DeploymentFile == "" {
		errs = append(errs, errors.New("deployment_file is required"))
	}
	if config.RatePerMinute < 0 || config.MaxConcurrentRequests < 0 {
		errs = append(errs, errors.New("rate limits must not be negative"))
	}
	return errors.Join(errs...)
}
