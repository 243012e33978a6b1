package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	sink "github.com/Tomcli/refarch-reefer-ml/internal/config/sink"
)

type Config struct {
	HTTPAddr    string      `yaml:"http_addr" env-default:":8080"`
	MetricsAddr string      `yaml:"metrics_addr" env-default:":9092"`
	MaxRecords  int         `yaml:"max_records" env-default:"100000"`
	FixedSeed   bool        `yaml:"fixed_seed" env:"SIMULATOR_FIXED_SEED"`
	Seed        uint64      `yaml:"seed" env:"SIMULATOR_SEED"`
	Sink        sink.Config `yaml:"sink"`
}

// SeedValue returns Seed when FixedSeed is set, otherwise a seed derived
// from now.
func (c *Config) SeedValue(now func() time.Time) uint64 {
	if c.FixedSeed {
		return c.Seed
	}
	return uint64(now().UnixNano())
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
	return &cfg
}
