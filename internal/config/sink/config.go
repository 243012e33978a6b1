package config

// Config selects and configures the broker that generated records are
// published to.
type Config struct {
	Kind      string `yaml:"kind" env:"SINK_KIND" env-default:"kafka"`
	Topic     string `yaml:"topic" env:"SINK_TOPIC" env-default:"reefer-telemetry"`
	KeyField  string `yaml:"key_field" env-default:"ID"`
	Kafka     Kafka  `yaml:"kafka"`
	RabbitURI string `yaml:"rabbit_uri" env:"RABBIT_URI"`
	HTTPURL   string `yaml:"http_url"`
}

// Kafka holds broker connection settings. Env is LOCAL for a plaintext
// local broker, ICP to add a private CA, anything else for SASL_SSL.
type Kafka struct {
	Env        string   `yaml:"env" env:"KAFKA_ENV" env-default:"LOCAL"`
	Brokers    []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	APIKey     string   `yaml:"api_key" env:"KAFKA_APIKEY"`
	CALocation string   `yaml:"ca_location" env-default:"es-cert.pem"`
}
