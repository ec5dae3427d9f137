package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/yashrajoria/storefront-service/database"
	aws_pkg "github.com/yashrajoria/storefront-service/pkg/aws"
)

type Config struct {
	Port        string
	Env         string
	ServiceName string
	Version     string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	CatalogBackend    string
	MongoURI          string
	MongoDB           string
	ProductServiceURL string
	CatalogTimeout    time.Duration
	CatalogCacheTTL   time.Duration
	PageSize          int

	RedisURL string

	PaymentGateway  string
	PaystackBaseURL string
	PaystackSecret  string
	StripeSecretKey string
	StripeBaseURL   string
	VerifyTimeout   time.Duration

	InvoiceArchive  string
	InvoiceBucket   string
	InvoicePrefix   string
	InvoiceDir      string
	InvoiceCompress bool
	ArchiveTimeout  time.Duration

	EventsBackend    string
	SNSOrderTopicArn string
	KafkaBrokers     []string
	KafkaOrderTopic  string

	JWTSecret           string
	TrustGatewayHeaders bool
	AllowedOrigins      string
	RateLimitRPS        float64
	RateLimitBurst      int

	AWSRegion          string
	AWSUseSecrets      bool
	SecretsName        string
	CloudWatchLogGroup string
	CloudWatchMetrics  bool
	MetricsNamespace   string
}

// LoadConfig reads .env (when present) and the environment, then applies
// the Secrets Manager overrides when AWS_USE_SECRETS=true.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := configFromEnv()

	if cfg.AWSUseSecrets {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		awsCfg, err := aws_pkg.LoadAWSConfig(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		if err := cfg.applySecrets(ctx, aws_pkg.NewSecretsClient(awsCfg)); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFromEnv() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("APP_ENV", "development"),
		ServiceName: getEnv("SERVICE_NAME", "storefront-service"),
		Version:     getEnv("SERVICE_VERSION", "dev"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),

		CatalogBackend:    strings.ToLower(getEnv("CATALOG_BACKEND", "mongo")),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:           getEnv("MONGO_DB", "shop"),
		ProductServiceURL: os.Getenv("PRODUCT_SERVICE_URL"),
		CatalogTimeout:    getEnvDuration("CATALOG_TIMEOUT", 5*time.Second),
		CatalogCacheTTL:   getEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		PageSize:          getEnvInt("PRODUCTS_PAGE_SIZE", 9),

		RedisURL: os.Getenv("REDIS_URL"),

		PaymentGateway:  strings.ToLower(getEnv("PAYMENT_GATEWAY", "paystack")),
		PaystackBaseURL: os.Getenv("PAYSTACK_BASE_URL"),
		PaystackSecret:  os.Getenv("PAYSTACK_SECRET_KEY"),
		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		StripeBaseURL:   os.Getenv("STRIPE_BASE_URL"),
		VerifyTimeout:   getEnvDuration("PAYMENT_VERIFY_TIMEOUT", 10*time.Second),

		InvoiceArchive:  strings.ToLower(getEnv("INVOICE_ARCHIVE", "file")),
		InvoiceBucket:   os.Getenv("INVOICE_S3_BUCKET"),
		InvoicePrefix:   getEnv("INVOICE_S3_PREFIX", "invoices"),
		InvoiceDir:      getEnv("INVOICE_DIR", "data/invoices"),
		InvoiceCompress: getEnvBool("INVOICE_COMPRESS", true),
		ArchiveTimeout:  getEnvDuration("INVOICE_ARCHIVE_TIMEOUT", 30*time.Second),

		EventsBackend:    strings.ToLower(getEnv("EVENTS_BACKEND", "none")),
		SNSOrderTopicArn: os.Getenv("SNS_ORDER_TOPIC_ARN"),
		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic:  getEnv("KAFKA_ORDER_TOPIC", "order.created"),

		JWTSecret:           os.Getenv("JWT_SECRET"),
		TrustGatewayHeaders: getEnvBool("TRUST_GATEWAY_HEADERS", false),
		AllowedOrigins:      os.Getenv("ALLOWED_ORIGINS"),
		RateLimitRPS:        getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:      getEnvInt("RATE_LIMIT_BURST", 20),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSUseSecrets:      getEnvBool("AWS_USE_SECRETS", false),
		SecretsName:        getEnv("AWS_SECRETS_NAME", "storefront/CONFIG"),
		CloudWatchLogGroup: os.Getenv("CLOUDWATCH_LOG_GROUP"),
		CloudWatchMetrics:  getEnvBool("CLOUDWATCH_METRICS_ENABLED", false),
		MetricsNamespace:   getEnv("CLOUDWATCH_NAMESPACE", "Storefront"),
	}
}

// applySecrets overrides credentials with the values stored in one JSON
// secret. Empty values are ignored.
func (c *Config) applySecrets(ctx context.Context, getter aws_pkg.SecretGetter) error {
	m, err := aws_pkg.GetSecretMap(ctx, getter, c.SecretsName)
	if err != nil {
		return fmt.Errorf("load secrets: %w", err)
	}
	override := func(dst *string, key string) {
		if v, ok := m[key]; ok && v != "" {
			*dst = v
		}
	}
	override(&c.PostgresUser, "POSTGRES_USER")
	override(&c.PostgresPassword, "POSTGRES_PASSWORD")
	override(&c.PostgresHost, "POSTGRES_HOST")
	override(&c.PostgresDB, "POSTGRES_DB")
	override(&c.MongoURI, "MONGO_URI")
	override(&c.PaystackSecret, "PAYSTACK_SECRET_KEY")
	override(&c.StripeSecretKey, "STRIPE_SECRET_KEY")
	override(&c.JWTSecret, "JWT_SECRET")
	return nil
}

func (c *Config) Validate() error {
	if c.PostgresUser == "" || c.PostgresPassword == "" || c.PostgresDB == "" || c.PostgresHost == "" {
		return fmt.Errorf("database config incomplete")
	}

	switch c.CatalogBackend {
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo catalog")
		}
	case "http":
		if c.ProductServiceURL == "" {
			return fmt.Errorf("PRODUCT_SERVICE_URL is required for the http catalog")
		}
	default:
		return fmt.Errorf("unknown CATALOG_BACKEND %q", c.CatalogBackend)
	}

	switch c.PaymentGateway {
	case "paystack":
		if c.PaystackSecret == "" {
			return fmt.Errorf("PAYSTACK_SECRET_KEY is required")
		}
	case "stripe":
		if c.StripeSecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required")
		}
	default:
		return fmt.Errorf("unknown PAYMENT_GATEWAY %q", c.PaymentGateway)
	}

	switch c.InvoiceArchive {
	case "s3":
		if c.InvoiceBucket == "" {
			return fmt.Errorf("INVOICE_S3_BUCKET is required for the s3 archive")
		}
	case "file":
		if c.InvoiceDir == "" {
			return fmt.Errorf("INVOICE_DIR is required for the file archive")
		}
	case "none":
	default:
		return fmt.Errorf("unknown INVOICE_ARCHIVE %q", c.InvoiceArchive)
	}

	switch c.EventsBackend {
	case "sns":
		if c.SNSOrderTopicArn == "" {
			return fmt.Errorf("SNS_ORDER_TOPIC_ARN is required for sns events")
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 || c.KafkaOrderTopic == "" {
			return fmt.Errorf("KAFKA_BROKERS and KAFKA_ORDER_TOPIC are required for kafka events")
		}
	case "none":
	default:
		return fmt.Errorf("unknown EVENTS_BACKEND %q", c.EventsBackend)
	}

	if c.JWTSecret == "" && !c.TrustGatewayHeaders {
		return fmt.Errorf("JWT_SECRET is required unless TRUST_GATEWAY_HEADERS=true")
	}

	if c.VerifyTimeout <= 0 || c.ArchiveTimeout <= 0 || c.CatalogTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	return nil
}

func (c *Config) postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:     c.PostgresHost,
		Port:     c.PostgresPort,
		User:     c.PostgresUser,
		Password: c.PostgresPassword,
		DBName:   c.PostgresDB,
		SSLMode:  c.PostgresSSLMode,
		TimeZone: c.PostgresTimeZone,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvDuration returns 0 for an unparsable value so Validate rejects it.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0
	}
	return d
}

func getEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
