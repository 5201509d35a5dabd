package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"bagshop/pkg/database"

	"go.uber.org/zap"
)

type Config struct {
	Port     string
	HTTP     HTTP
	DB       DB
	JWT      JWT
	Password Password
	Redis    Redis
	Kafka    Kafka
	Checkout Checkout
}

type HTTP struct {
	AllowOrigins  []string
	SecureCookies bool
}

type DB struct {
	database.Config
}

type JWT struct {
	Secret    string
	Issuer    string
	Audience  string
	AccessExp time.Duration
}

// Password: BcryptCost 0 — bcrypt.DefaultCost.
type Password struct {
	BcryptCost int
}

type Redis struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	CartTTL  time.Duration
}

type Kafka struct {
	Brokers     []string
	OrdersTopic string
}

type Checkout struct {
	CurrencyCode  string
	PaymentMethod string
}

// Admin — учётка, которую cmd/migrate создаёт при первом запуске (если задана).
type Admin struct {
	Email    string
	Password string
}

func Load(log *zap.Logger) *Config {
	return &Config{
		Port: getEnv("APP_PORT", log),
		HTTP: HTTP{
			AllowOrigins:  splitAndTrim(getEnvDefault("CORS_ORIGINS", "*")),
			SecureCookies: getEnvDefault("COOKIE_SECURE", "false") == "true",
		},
		DB: DB{
			Config: database.Config{
				Host:     getEnv("DB_HOST", log),
				Port:     getEnv("DB_PORT", log),
				User:     getEnv("DB_USER", log),
				Password: getEnv("DB_PASSWORD", log),
				Name:     getEnv("DB_NAME", log),
				SSLMode:  getEnv("DB_SSLMODE", log),
			},
		},
		JWT: JWT{
			Secret:    getEnv("JWT_SECRET", log),
			Issuer:    getEnvDefault("JWT_ISSUER", "bagshop"),
			Audience:  getEnvDefault("JWT_AUDIENCE", "bagshop-web"),
			AccessExp: parseDurationWithDays(getEnvDefault("ACCESS_EXP", "1d")),
		},
		Password: LoadPassword(),
		Redis: Redis{
			Enabled:  getEnvDefault("REDIS_ENABLED", "false") == "true",
			Addr:     getEnvDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       atoiDefault(os.Getenv("REDIS_DB"), 0),
			CartTTL:  parseDurationWithDays(getEnvDefault("CART_TTL", "7d")),
		},
		Kafka: Kafka{
			Brokers:     splitAndTrim(os.Getenv("KAFKA_BROKERS")),
			OrdersTopic: getEnvDefault("KAFKA_TOPIC_ORDERS", "shop.orders"),
		},
		Checkout: Checkout{
			CurrencyCode:  strings.ToUpper(getEnvDefault("CURRENCY_CODE", "USD")),
			PaymentMethod: getEnvDefault("PAYMENT_METHOD", "Offline Payment (Simulated)"),
		},
	}
}

// LoadAdmin: пустые поля — администратора не создаём.
func LoadAdmin() Admin {
	return Admin{
		Email:    os.Getenv("ADMIN_EMAIL"),
		Password: os.Getenv("ADMIN_PASSWORD"),
	}
}

func LoadPassword() Password {
	return Password{BcryptCost: atoiDefault(os.Getenv("BCRYPT_COST"), 0)}
}

// LoadDB — только БД, для cmd/migrate.
func LoadDB(log *zap.Logger) DB {
	return DB{
		Config: database.Config{
			Host:     getEnv("DB_HOST", log),
			Port:     getEnv("DB_PORT", log),
			User:     getEnv("DB_USER", log),
			Password: getEnv("DB_PASSWORD", log),
			Name:     getEnv("DB_NAME", log),
			SSLMode:  getEnv("DB_SSLMODE", log),
		},
	}
}

func getEnv(key string, log *zap.Logger) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	log.Error("Обязательная переменная окружения не установлена", zap.String("key", key))
	panic("missing required environment variable: " + key)
}

func getEnvDefault(key, def string) string {
	if val, exists := os.LookupEnv(key); exists && val != "" {
		return val
	}
	return def
}

func parseDurationWithDays(s string) time.Duration {
	if strings.HasSuffix(s, "d") {
		daysStr := strings.TrimSuffix(s, "d")
		days, err := time.ParseDuration(daysStr + "h")
		if err != nil {
			log.Printf("Ошибка парсинга TTL: %v", err)
			return 0
		}
		return time.Duration(24) * days
	}

	duration, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return duration
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := []string{}
	for _, p := range strings.Split(s, ",") {
		pt := strings.TrimSpace(p)
		if pt != "" {
			parts = append(parts, pt)
		}
	}
	return parts
}

type Notifier struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPSSL      bool

	TMPLDir string

	KafkaBrokers []string
	KafkaGroupID string
	KafkaTopic   string
}

// LoadNotifier — настройки cmd/notifier.
func LoadNotifier(log *zap.Logger) *Notifier {
	return &Notifier{
		SMTPHost:     getEnv("SMTP_HOST", log),
		SMTPPort:     getEnvInt("SMTP_PORT", log),
		SMTPUser:     getEnv("SMTP_USER", log),
		SMTPPassword: getEnv("SMTP_PASSWORD", log),
		SMTPFrom:     getEnv("SMTP_FROM", log),
		SMTPSSL:      getEnvDefault("SMTP_SSL", "false") == "true",
		TMPLDir:      getEnvDefault("TMPL_DIR", "templates"),
		KafkaBrokers: splitAndTrim(getEnv("KAFKA_BROKERS", log)),
		KafkaGroupID: getEnvDefault("KAFKA_GROUP_ID", "bagshop-notifier"),
		KafkaTopic:   getEnvDefault("KAFKA_TOPIC_ORDERS", "shop.orders"),
	}
}

func getEnvInt(key string, log *zap.Logger) int {
	valStr := getEnv(key, log)
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Error("Ошибка преобразования переменной окружения в int", zap.String("key", key), zap.Error(err))
		panic("invalid int value for environment variable: " + key)
	}
	return val
}
