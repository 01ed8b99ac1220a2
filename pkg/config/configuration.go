package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

var (
	DashforgeEnvVarPrefix string = "DASHFORGE"
)

type DashforgeConfiguration struct {
	HttpPort        uint   `json:"http_port,omitempty" mapstructure:"http_port,omitempty" yaml:"http_port,omitempty"`
	DevelopmentMode bool   `json:"development_mode,omitempty" mapstructure:"development_mode,omitempty" yaml:"development_mode,omitempty"`
	EncryptionKey   string `json:"encryption_key,omitempty" mapstructure:"encryption_key,omitempty" yaml:"encryption_key,omitempty"`
}

func LoadDefaultConfiguration() *DashforgeConfiguration {
	return &DashforgeConfiguration{
		HttpPort: 8000,
	}
}

// LoadRuntimeConfiguration reads .dashforge/config.yaml, writing a default
// one on first run. Any field can be overridden through the environment
// with the DASHFORGE_ prefix; the encryption key normally arrives that way.
func LoadRuntimeConfiguration(v *viper.Viper) (*DashforgeConfiguration, error) {
	v.SetEnvPrefix(DashforgeEnvVarPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_port", 8000)

	configPath := filepath.Join(AppDashforgePath(), "config.yaml")
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if _, err := os.Stat(configPath); err != nil {
		// No config file found, write the defaults
		defaultConfig := LoadDefaultConfiguration()
		marshalledConfig, err := yaml.Marshal(defaultConfig)
		if err != nil {
			return nil, err
		}

		if err := os.MkdirAll(AppDashforgePath(), 0766); err != nil {
			return nil, fmt.Errorf("error initializing %s: %w", configPath, err)
		}

		if err := os.WriteFile(configPath, marshalledConfig, 0766); err != nil {
			return nil, fmt.Errorf("error initializing %s: %w", configPath, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.WatchConfig()

	var config *DashforgeConfiguration
	err := v.Unmarshal(&config)
	return config, err
}

func (rtConfig *DashforgeConfiguration) ServerBaseUrl() string {
	return fmt.Sprintf("http://localhost:%d", rtConfig.HttpPort)
}
