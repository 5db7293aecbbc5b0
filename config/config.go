package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/yeremiapane/food-storefront/services"
	"github.com/yeremiapane/food-storefront/utils"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	OrderAPI services.OrderAPIConfig
	Session  SessionConfig
	Monitor  MonitorConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
	RateLimit      float64
	RateBurst      int
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	Path     string
}

type SessionConfig struct {
	Secret   string
	TokenTTL time.Duration
}

type MonitorConfig struct {
	RetryInterval time.Duration
	MaxAttempts   int
	SessionIdle   time.Duration
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found, using environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("TRUSTED_PROXIES", "127.0.0.1")
	v.SetDefault("RATE_LIMIT", 5)
	v.SetDefault("RATE_BURST", 10)
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_PATH", "storefront.db")
	v.SetDefault("ORDER_API_TIMEOUT", "30s")
	v.SetDefault("SESSION_TOKEN_TTL", "24h")
	v.SetDefault("PAYMENT_RETRY_INTERVAL", "1m")
	v.SetDefault("PAYMENT_MAX_ATTEMPTS", 10)
	v.SetDefault("SESSION_IDLE_TIMEOUT", "30m")

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
			TrustedProxies: splitList(v.GetString("TRUSTED_PROXIES")),
			RateLimit:      v.GetFloat64("RATE_LIMIT"),
			RateBurst:      v.GetInt("RATE_BURST"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			Path:     v.GetString("DB_PATH"),
		},
		OrderAPI: services.OrderAPIConfig{
			BaseURL: v.GetString("ORDER_API_URL"),
			APIKey:  v.GetString("ORDER_API_KEY"),
			Timeout: v.GetDuration("ORDER_API_TIMEOUT"),
		},
		Session: SessionConfig{
			Secret:   v.GetString("SESSION_SECRET"),
			TokenTTL: v.GetDuration("SESSION_TOKEN_TTL"),
		},
		Monitor: MonitorConfig{
			RetryInterval: v.GetDuration("PAYMENT_RETRY_INTERVAL"),
			MaxAttempts:   v.GetInt("PAYMENT_MAX_ATTEMPTS"),
			SessionIdle:   v.GetDuration("SESSION_IDLE_TIMEOUT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Session.Secret == "" {
		return errors.New("SESSION_SECRET is not set")
	}
	if err := services.NewOrderAPIClient(&c.OrderAPI).ValidateConfig(); err != nil {
		return err
	}
	switch c.Database.Driver {
	case "mysql":
		if c.Database.Host == "" || c.Database.Name == "" {
			return errors.New("DB_HOST and DB_NAME are required for mysql")
		}
	case "sqlite":
	default:
		return errors.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DSN builds the driver specific connection string.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.Port, d.Name)
	}
	return d.Path
}

func InitDB(d DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch d.Driver {
	case "mysql":
		dialector = mysql.Open(d.DSN())
	case "sqlite":
		dialector = sqlite.Open(d.DSN())
	default:
		return nil, errors.Errorf("unsupported DB_DRIVER %q", d.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	utils.InfoLogger.Printf("Connected to %s database", d.Driver)
	return db, nil
}
