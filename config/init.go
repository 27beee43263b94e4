package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/sendblast/sendblast/internal/logger"
	"github.com/sendblast/sendblast/internal/tracing"
)

type Config struct {
	AppConfig      *AppConfig
	SMTPConfig     *SMTPConfig
	SenderConfig   *SenderConfig
	DispatchConfig *DispatchConfig
	ContentConfig  *ContentConfig
	Logger         *logger.Config
	Tracing        *tracing.JaegerConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:      &AppConfig{},
		SMTPConfig:     &SMTPConfig{},
		SenderConfig:   &SenderConfig{},
		DispatchConfig: &DispatchConfig{},
		ContentConfig:  &ContentConfig{},
		Logger:         &logger.Config{},
		Tracing:        &tracing.JaegerConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading sendblast config: %v", err)
	}

	return config, nil
}
