package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// Config keys.
	cfgKeyDatabase = "database"
)

// loadConfig reads the hfind config file with Viper. An explicit path is
// honored as-is; otherwise ~/.config/hfind/config.yaml and the working
// directory are searched. A missing config file is not an error.
func loadConfig(explicit string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(configFileType)

	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", explicit, err)
		}
		return v, nil
	}

	v.SetConfigName(configFileName)
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "hfind"))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	log.WithField("file", v.ConfigFileUsed()).Debug("loaded config")
	return v, nil
}
