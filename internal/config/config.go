package config

import (
	"os"
	"strconv"
	"strings"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverDynamoDB = "dynamodb"
	DriverS3       = "s3"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Storage  StorageConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Dynamo   DynamoConfig
	S3       S3Config
	Kafka    KafkaConfig
	SMTP     SMTPConfig
}

type ServerConfig struct {
	AppEnv   string
	HTTPAddr string
	// ShutdownTimeout is in seconds.
	ShutdownTimeout int
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type StorageConfig struct {
	Driver     string
	SQLitePath string
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type DynamoConfig struct {
	Table    string
	Region   string
	Endpoint string
}

type S3Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	PathStyle bool
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
	GroupID string
}

type SMTPConfig struct {
	Host string
	Port string
	From string
	// To receives sale and sold-out notices.
	To string
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:          getEnv("APP_ENV", "dev"),
			HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getEnvInt("SHUTDOWN_TIMEOUT", 10),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(getEnv("STORAGE_DRIVER", DriverSQLite)),
			SQLitePath: getEnv("SQLITE_PATH", "resellz.db"),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5432"),
			User:            getEnv("POSTGRES_USER", "resellz"),
			Password:        getEnv("POSTGRES_PASSWORD", "resellz"),
			DBName:          getEnv("POSTGRES_DB", "resellz"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 5),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", ""),
		},
		Dynamo: DynamoConfig{
			Table:    getEnv("DYNAMODB_TABLE", "resellz-state"),
			Region:   getEnv("AWS_REGION", "us-east-1"),
			Endpoint: getEnv("DYNAMODB_ENDPOINT", ""),
		},
		S3: S3Config{
			Bucket:    getEnv("S3_BUCKET", ""),
			Prefix:    getEnv("S3_PREFIX", ""),
			Region:    getEnv("AWS_REGION", "us-east-1"),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			PathStyle: getEnvBool("S3_PATH_STYLE", false),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC", "resellz.activity"),
			GroupID: getEnv("KAFKA_GROUP_NOTIFIER", "resellz-notifier"),
		},
		SMTP: SMTPConfig{
			Host: getEnv("SMTP_HOST", "localhost"),
			Port: getEnv("SMTP_PORT", "1025"),
			From: getEnv("SMTP_FROM", "noreply@resellz.local"),
			To:   getEnv("SMTP_TO", ""),
		},
	}
}

// IsDevelopment reports whether APP_ENV names a local environment.
func (c *Config) IsDevelopment() bool {
	switch c.Server.AppEnv {
	case "dev", "development", "local":
		return true
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		parts := strings.Split(value, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return fallback
}
