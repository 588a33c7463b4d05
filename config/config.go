package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config armazena todas as configurações do utilitário de gestão de usuários.
// Os valores vêm de variáveis de ambiente (e do .env carregado no main).
type Config struct {
	// Geral
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Banco de Dados (PostgreSQL)
	DatabaseURL string        `envconfig:"DATABASE_URL" required:"true"`
	DBTimeout   time.Duration `envconfig:"DB_TIMEOUT" default:"5s"`
	AutoMigrate bool          `envconfig:"AUTO_MIGRATE" default:"true"`

	// Senhas
	BcryptCost int `envconfig:"BCRYPT_COST" default:"10"`

	// Sessões (Redis + JWT)
	SessionsEnabled bool          `envconfig:"SESSIONS_ENABLED" default:"true"`
	RedisAddr       string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	JWTSecretKey    string        `envconfig:"JWT_SECRET_KEY"`
	TokenExpiry     time.Duration `envconfig:"TOKEN_EXPIRY" default:"60m"`

	// Limite de tentativas de login
	LoginMaxAttempts int           `envconfig:"LOGIN_MAX_ATTEMPTS" default:"5"`
	LoginLockPeriod  time.Duration `envconfig:"LOGIN_LOCK_PERIOD" default:"15m"`
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate verifica combinações que as tags do envconfig não conseguem expressar.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL deve ser definida")
	}
	if c.DBTimeout <= 0 {
		return errors.New("DB_TIMEOUT deve ser positivo")
	}
	if c.SessionsEnabled {
		if c.TokenExpiry <= 0 {
			return errors.New("TOKEN_EXPIRY deve ser positivo")
		}
		if c.LoginMaxAttempts <= 0 {
			return errors.New("LOGIN_MAX_ATTEMPTS deve ser maior que zero")
		}
	}
	return nil
}

// SessionsUsable indica se as sessões podem ser ativadas: habilitadas e com JWT_SECRET_KEY.
// Sem a chave o utilitário roda apenas com o núcleo de contas.
func (c *Config) SessionsUsable() bool {
	return c.SessionsEnabled && c.JWTSecretKey != ""
}

// IsDevelopment indica se a aplicação roda em ambiente de desenvolvimento.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.Environment == "development"
}
