package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvConfigDir overrides the config search path, for deployments that
// mount the file somewhere other than the working directory.
const EnvConfigDir = "GYMAPP_CONFIG_DIR"

// Load reads the named YAML config file from configPath, the working
// directory, ./config, or $GYMAPP_CONFIG_DIR, then layers environment
// variables on top (STORE_REDIS_ADDRESS overrides store.redis.address). A
// missing file is not an error; containers run on env vars alone.
func Load(configPath, configName string) (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		v.AddConfigPath(dir)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config %q: %w", configName, err)
	}

	return v, nil
}
