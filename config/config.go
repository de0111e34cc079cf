// Package config reads service settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverPostgres = "postgres"
	DriverMongo    = "mongo"

	TransportDirect = "direct"
	TransportKafka  = "kafka"
	TransportLog    = "log"
)

type Config struct {
	Env         string
	ServiceName string
	HTTPPort    string
	GRPCPort    string

	StoreDriver string
	DB          DBConfig
	MongoURI    string
	MongoDB     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string

	RazorpayKeyID     string
	RazorpayKeySecret string
	GatewayTimeout    time.Duration

	JWTSecret string

	NotifyTransport string
	NotifyTimeout   time.Duration
	BrevoAPIKey     string
	EmailSender     string
	EmailSenderName string
	EmailBCC        string
	StoreName       string
	ContactEmail    string

	APIRateLimit      int
	APIRateWindow     time.Duration
	AuthRateLimit     int
	AuthRateWindow    time.Duration
	PaymentRateLimit  int
	PaymentRateWindow time.Duration

	JaegerEndpoint string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns a lib/pq connection string.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("SERVICE_NAME", "storefront")
	v.SetDefault("PORT", "8080")
	v.SetDefault("GRPC_PORT", "9090")

	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "storefront")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "storefront")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", 5*time.Minute)

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "order_events")
	v.SetDefault("KAFKA_GROUP", "storefront-notifier")

	v.SetDefault("GATEWAY_TIMEOUT", 10*time.Second)

	v.SetDefault("NOTIFY_TRANSPORT", TransportLog)
	v.SetDefault("NOTIFY_TIMEOUT", 15*time.Second)
	v.SetDefault("EMAIL_SENDER_NAME", "Storefront")
	v.SetDefault("STORE_NAME", "Storefront")

	v.SetDefault("API_RATE_LIMIT", 100)
	v.SetDefault("API_RATE_WINDOW", 15*time.Minute)
	v.SetDefault("AUTH_RATE_LIMIT", 10)
	v.SetDefault("AUTH_RATE_WINDOW", 15*time.Minute)
	v.SetDefault("PAYMENT_RATE_LIMIT", 10)
	v.SetDefault("PAYMENT_RATE_WINDOW", time.Minute)
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Env:         strings.ToLower(v.GetString("APP_ENV")),
		ServiceName: v.GetString("SERVICE_NAME"),
		HTTPPort:    v.GetString("PORT"),
		GRPCPort:    v.GetString("GRPC_PORT"),

		StoreDriver: strings.ToLower(v.GetString("STORE_DRIVER")),
		DB: DBConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		MongoURI: v.GetString("MONGO_URI"),
		MongoDB:  v.GetString("MONGO_DB"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		CacheTTL:      v.GetDuration("CACHE_TTL"),

		KafkaBrokers: splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:   v.GetString("KAFKA_TOPIC"),
		KafkaGroup:   v.GetString("KAFKA_GROUP"),

		RazorpayKeyID:     v.GetString("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: v.GetString("RAZORPAY_KEY_SECRET"),
		GatewayTimeout:    v.GetDuration("GATEWAY_TIMEOUT"),

		JWTSecret: v.GetString("JWT_SECRET"),

		NotifyTransport: strings.ToLower(v.GetString("NOTIFY_TRANSPORT")),
		NotifyTimeout:   v.GetDuration("NOTIFY_TIMEOUT"),
		BrevoAPIKey:     v.GetString("BREVO_API_KEY"),
		EmailSender:     v.GetString("EMAIL_SENDER"),
		EmailSenderName: v.GetString("EMAIL_SENDER_NAME"),
		EmailBCC:        v.GetString("EMAIL_BCC"),
		StoreName:       v.GetString("STORE_NAME"),
		ContactEmail:    v.GetString("CONTACT_EMAIL"),

		APIRateLimit:      v.GetInt("API_RATE_LIMIT"),
		APIRateWindow:     v.GetDuration("API_RATE_WINDOW"),
		AuthRateLimit:     v.GetInt("AUTH_RATE_LIMIT"),
		AuthRateWindow:    v.GetDuration("AUTH_RATE_WINDOW"),
		PaymentRateLimit:  v.GetInt("PAYMENT_RATE_LIMIT"),
		PaymentRateWindow: v.GetDuration("PAYMENT_RATE_WINDOW"),

		JaegerEndpoint: v.GetString("JAEGER_ENDPOINT"),
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the settings the serve command cannot run without.
// Secrets are only enforced outside development.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case DriverPostgres, DriverMongo:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.NotifyTransport {
	case TransportDirect:
		if c.BrevoAPIKey == "" || c.EmailSender == "" {
			errs = append(errs, errors.New("NOTIFY_TRANSPORT=direct requires BREVO_API_KEY and EMAIL_SENDER"))
		}
	case TransportKafka:
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("NOTIFY_TRANSPORT=kafka requires KAFKA_BROKERS"))
		}
	case TransportLog:
	default:
		errs = append(errs, fmt.Errorf("unknown NOTIFY_TRANSPORT %q", c.NotifyTransport))
	}

	if c.GatewayTimeout <= 0 {
		errs = append(errs, errors.New("GATEWAY_TIMEOUT must be positive"))
	}

	if !c.IsDevelopment() {
		if c.RazorpayKeyID == "" || c.RazorpayKeySecret == "" {
			errs = append(errs, errors.New("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required"))
		}
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required"))
		}
	}

	return errors.Join(errs...)
}
