package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

type Store struct {
	Driver                string
	UsersContainer        string
	PublicationsContainer string
}

type Mongo struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type DB struct {
	DbHOST     string
	DbPORT     string
	DbUSER     string
	DbPASSWORD string
	DbNAME     string
	DbSSLMODE  string
	Migrations string
}

type Redis struct {
	URI         string
	LoginLimit  int
	LimitWindow time.Duration

	// TrustedProxies may set X-Forwarded-For. Empty means the socket
	// address is always the client.
	TrustedProxies []string
}

type MinIO struct {
	Enabled    bool
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
	Region     string
	PublicURL  string
}

type JWT struct {
	SecretKey     string
	Issuer        string
	Audience      string
	TokenDuration time.Duration
}

type Mail struct {
	Driver       string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	From         string
	FromName     string
	ResetURL     string
}

type Password struct {
	MinLength    int
	RequireUpper bool
	RequireLower bool
	RequireDigit bool
	BcryptCost   int
	ResetTTL     time.Duration
}

type Config struct {
	ServerPort     int
	Store          Store
	Mongo          Mongo
	DB             DB
	Redis          Redis
	MinIO          MinIO
	JWT            JWT
	Mail           Mail
	Password       Password
	MaxUploadSize  int64
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

func LoadStore() Store {
	return Store{
		Driver:                strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		UsersContainer:        getEnv("STORE_USERS_CONTAINER", "users"),
		PublicationsContainer: getEnv("STORE_PUBLICATIONS_CONTAINER", "publications"),
	}
}

func LoadMongo() Mongo {
	return Mongo{
		URI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
		Database:       getEnv("MONGO_DATABASE", "ignist"),
		ConnectTimeout: getEnvDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
	}
}

func LoadDB() DB {
	return DB{
		DbHOST:     getEnv("DB_HOST", "localhost"),
		DbPORT:     getEnv("DB_PORT", "5432"),
		DbUSER:     getEnv("DB_USER", "postgres"),
		DbPASSWORD: getEnv("DB_PASSWORD", "password"),
		DbNAME:     getEnv("DB_NAME", "ignist"),
		DbSSLMODE:  getEnv("DB_SSLMODE", "disable"),
		Migrations: getEnv("DB_MIGRATIONS", "migrations/001_create_documents.sql"),
	}
}

func LoadRedis() Redis {
	return Redis{
		URI:         getEnv("REDIS_URI", ""),
		LoginLimit:  getEnvAsInt("RATE_LIMIT_REQUESTS", 10),
		LimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		TrustedProxies: getEnvList("TRUSTED_PROXIES", nil),
	}
}

func LoadMinIO() MinIO {
	return MinIO{
		Enabled:    getEnvBool("MINIO_ENABLED", false),
		Endpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
		AccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		SecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
		BucketName: getEnv("MINIO_BUCKET_NAME", "attachments"),
		UseSSL:     getEnvBool("MINIO_USE_SSL", false),
		Region:     getEnv("MINIO_REGION", "us-east-1"),
		PublicURL:  getEnv("MINIO_PUBLIC_URL", "http://localhost:9000"),
	}
}

func LoadJWT() JWT {
	return JWT{
		SecretKey:     getEnv("JWT_SECRET_KEY", ""),
		Issuer:        getEnv("JWT_ISSUER", "ignist"),
		Audience:      getEnv("JWT_AUDIENCE", "ignist-clients"),
		TokenDuration: getEnvDuration("JWT_TOKEN_DURATION", 30*time.Minute),
	}
}

func LoadMail() Mail {
	return Mail{
		Driver:       strings.ToLower(getEnv("MAIL_DRIVER", "smtp")),
		SMTPHost:     getEnv("SMTP_HOST", "smtp.sendgrid.net"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", "apikey"),
		SMTPPassword: getEnv("SMTP_PASSWORD", getEnv("SENDGRID_API_KEY", "")),
		From:         getEnv("MAIL_FROM", "no-reply@ignist.dev"),
		FromName:     getEnv("MAIL_FROM_NAME", "Ignist"),
		ResetURL:     getEnv("PASSWORD_RESET_URL", "http://localhost:3000/reset-password"),
	}
}

func LoadPassword() Password {
	return Password{
		MinLength:    getEnvAsInt("PASSWORD_MIN_LENGTH", 8),
		RequireUpper: getEnvBool("PASSWORD_REQUIRE_UPPER", true),
		RequireLower: getEnvBool("PASSWORD_REQUIRE_LOWER", true),
		RequireDigit: getEnvBool("PASSWORD_REQUIRE_DIGIT", true),
		BcryptCost:   getEnvAsInt("BCRYPT_COST", 10),
		ResetTTL:     getEnvDuration("PASSWORD_RESET_TTL", time.Hour),
	}
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	return &Config{
		ServerPort:     getEnvAsInt("SERVER_PORT", 8080),
		Store:          LoadStore(),
		Mongo:          LoadMongo(),
		DB:             LoadDB(),
		Redis:          LoadRedis(),
		MinIO:          LoadMinIO(),
		JWT:            LoadJWT(),
		Mail:           LoadMail(),
		Password:       LoadPassword(),
		MaxUploadSize:  parseMaxUploadSize(getEnv("MAX_UPLOAD_SIZE", "10485760")),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}
}

func parseMaxUploadSize(value string) int64 {
	size, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 10 * 1024 * 1024
	}
	return size
}
