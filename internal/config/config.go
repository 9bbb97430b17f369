package config

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	APIKey        string `env:"API_KEY,required"`
	SentryURL     string `env:"SENTRY_URL"`
	WebhookURL    string `env:"WEBHOOK_URL"`
	InstanceName  string `env:"INSTANCE_NAME,default=governor"`
	EngineAddress string `env:"ENGINE_ADDRESS,required"`
	DAOAddress    string `env:"DAO_ADDRESS,required"`
	VaultAddress  string `env:"VAULT_ADDRESS,required"`
	AdminAddress  string `env:"ADMIN_ADDRESS,required"`
	Quorum        uint64 `env:"QUORUM,default=1"`
	DBUser        string `env:"DB_USER"`
	DBPassword    string `env:"DB_PASSWORD"`
	DBName        string `env:"DB_NAME"`
	DBHost        string `env:"DB_HOST"`
}

func New(ctx context.Context, envpath string) (*Config, error) {
	if envpath != "" {
		log.Default().Println("loading env from file: ", envpath)
		err := godotenv.Load(envpath)
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	err := envconfig.Process(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
