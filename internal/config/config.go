package config // package config loads application configuration from the environment

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration values.  It is built once at
// startup and passed by value into the components that need it; nothing
// reads the environment after Load returns.
type Config struct {
	Env  string `envconfig:"APP_ENV" default:"dev"`   // application environment (dev, test, prod)
	Port string `envconfig:"APP_PORT" default:"5000"` // HTTP port to listen on

	DBUser    string `envconfig:"DB_USER" required:"true"`
	DBPass    string `envconfig:"DB_PASS"` // empty allowed
	DBHost    string `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBPort    string `envconfig:"DB_PORT" default:"3306"`
	DBName    string `envconfig:"DB_NAME" required:"true"`
	DBMigrate bool   `envconfig:"DB_MIGRATE" default:"true"` // apply embedded migrations on startup

	JWTSecret  string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"1h"`
	BcryptCost int           `envconfig:"BCRYPT_COST" default:"10"`

	OpenAIKey           string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel         string        `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
	OpenAIBaseURL       string        `envconfig:"OPENAI_BASE_URL"`
	OpenAITimeout       time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`
	GenerateRequireAuth bool          `envconfig:"GENERATE_REQUIRE_AUTH" default:"false"`

	RedisAddr     string `envconfig:"REDIS_ADDR"` // empty disables session revocation
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RevokePrefix  string `envconfig:"REVOKE_PREFIX" default:"revoked"`

	RabbitURL    string `envconfig:"RABBITMQ_URL"` // empty disables recipe events
	EventsLogDir string `envconfig:"EVENTS_LOG_DIR" default:"logs"`

	LogLevel    string   `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string   `envconfig:"LOG_FORMAT" default:"text"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// Load reads an optional .env file and then the process environment.  A
// missing .env is not an error; a malformed one is.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !isNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET must not be blank")
	}
	if c.AccessTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %s", c.AccessTTL)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST out of range: %d", c.BcryptCost)
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// IsProduction reports whether the service runs with APP_ENV=prod.
func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// Addr is the listen address derived from Port.
func (c Config) Addr() string {
	return ":" + c.Port
}
