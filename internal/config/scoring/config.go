package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	MongoURI            string `yaml:"mongo_uri" env-required:"true"`
	RabbitURI           string `yaml:"rabbit_uri" env-required:"true"`
	QueueName           string `yaml:"queue_name" env-default:"reefer-telemetry"`
	DBName              string `yaml:"db_name" env-default:"reefer"`
	TelemetryCollection string `yaml:"telemetry_collection" env-default:"telemetry"`
	AlertCollection     string `yaml:"alert_collection" env-default:"alerts"`
	SustainedCount      int    `yaml:"sustained_count" env-default:"7"`
	MetricsAddr         string `yaml:"metrics_addr" env-default:":9093"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		panic("CONFIG_PATH environment variable is not set")
	}
	if _, err := os.Stat(configPath); err != nil {
		panic(fmt.Errorf("error opening config file: %s", err))
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic(fmt.Errorf("error reading config file: %s", err))
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Errorf("invalid config: %s", err))
	}
	return &cfg
}

// Validate rejects settings the scoring engine cannot run with.
func (c *Config) Validate() error {
	if c.SustainedCount < 1 {
		return fmt.Errorf("sustained_count must be at least 1, got %d", c.SustainedCount)
	}
	return nil
}
