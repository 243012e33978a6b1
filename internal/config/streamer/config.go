package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	sink "github.com/Tomcli/refarch-reefer-ml/internal/config/sink"
)

type Config struct {
	ContainerNumber   int           `yaml:"container_number" env-required:"true"`
	ContainerPrefix   string        `yaml:"container_prefix" env-default:"C"`
	Scenario          string        `yaml:"scenario" env-default:"poweroff"`
	Records           int           `yaml:"records" env-default:"1000"`
	TargetTemperature float64       `yaml:"target_temperature" env-default:"4.4"`
	StartTime         string        `yaml:"start_time"`
	MsgPeriod         time.Duration `yaml:"msg_period" env-default:"1s"`
	Seed              uint64        `yaml:"seed" env:"SIMULATOR_SEED"`
	ExportDir         string        `yaml:"export_dir"`
	MetricsAddr       string        `yaml:"metrics_addr" env-default:":9092"`
	Sink              sink.Config   `yaml:"sink"`
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
