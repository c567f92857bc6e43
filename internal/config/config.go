package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type RatesConfig struct {
	Env          string `yaml:"env" env-default:"local"`
	HTTPServer   `yaml:"http_server"`
	RatesDB      `yaml:"rates_db"`
	Redis        `yaml:"redis"`
	KafkaService `yaml:"kafka-service"`
	Binance      `yaml:"binance"`
	Ingestion    `yaml:"ingestion"`
}

type HTTPServer struct {
	Host      string `yaml:"host" env-default:"0.0.0.0"`
	Port      string `yaml:"port" env-default:"8080"`
	RateLimit int    `yaml:"rate_limit" env-default:"60"`
}

type RatesDB struct {
	Dsn            string `yaml:"dsn"`
	MigrationsPath string `yaml:"migrations_path" env-default:"migrations"`
}

type Redis struct {
	Addr     string `yaml:"addr" env-default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaService struct {
	Host  string `yaml:"host"`
	Port  string `yaml:"port"`
	Topic string `yaml:"topic" env-default:"rate-events"`
}

type Binance struct {
	BaseURL string        `yaml:"base_url" env-default:"https://api.binance.com"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

type Ingestion struct {
	Interval time.Duration `yaml:"interval" env-default:"5m"`
	CacheTTL time.Duration `yaml:"cache_ttl" env-default:"30s"`
}

func MustLoad() *RatesConfig {

	// Processing env config variable and file
	configPath := os.Getenv("RATES_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("RATES_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil {
		log.Fatalf("failed to find config file: %v\n", err)
	}

	// YAML to struct object
	var cfg RatesConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	return &cfg
}
