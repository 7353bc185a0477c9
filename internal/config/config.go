package config

import (
	"errors"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"`
}

type ShareConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type AssistantConfig struct {
	URL            string `mapstructure:"url"`
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Share     ShareConfig     `mapstructure:"share"`
	Assistant AssistantConfig `mapstructure:"assistant"`
}

// LoadConfig reads config.yaml from the working directory, overlaid
// with environment variables. A missing file is fine: the app must run
// with zero configuration.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("storage.path", "data/squares.json")
	v.SetDefault("share.base_url", "http://localhost:8080/")
	v.SetDefault("assistant.url", "https://api.openai.com/v1/responses")
	v.SetDefault("assistant.model", "gpt-4o-mini")
	v.SetDefault("assistant.timeout_seconds", 20)
	v.BindEnv("assistant.api_key", "OPENAI_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
