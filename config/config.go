package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	MailTransportSMTP  = "smtp"
	MailTransportKafka = "kafka"
)

type Config struct {
	ServerPort    string
	DatabaseDSN   string
	FrontendURL   string
	AccessSecret  string
	CloudinaryUrl string
	LogLevel      string
	CorsOrigins   string

	MailTransport string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	MailFrom      string
	MailFromName  string

	KafkaBroker   string
	KafkaTopic    string
	KafkaGroupID  string
	KafkaUsername string
	KafkaPassword string
}

func LoadConfig() Config {
	if os.Getenv("ENV") != "prod" {
		if err := godotenv.Overload(); err != nil {
			log.Println("Warning: .env not loaded:", err)
		}
	}

	return Config{
		ServerPort:    normalizePort(getEnv("SERVER_PORT", ":5000")),
		DatabaseDSN:   os.Getenv("DATABASE_DSN"),
		FrontendURL:   strings.TrimRight(os.Getenv("FRONTEND_URL"), "/"),
		AccessSecret:  os.Getenv("JWT_SECRET"),
		CloudinaryUrl: os.Getenv("CLOUDINARY_URL"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CorsOrigins:   getEnv("CORS_ORIGINS", "*"),

		MailTransport: strings.ToLower(getEnv("MAIL_TRANSPORT", MailTransportSMTP)),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      getEnvInt("SMTP_PORT", 587),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		MailFrom:      os.Getenv("MAIL_FROM"),
		MailFromName:  getEnv("MAIL_FROM_NAME", "CBT"),

		KafkaBroker:   os.Getenv("KAFKA_BROKER"),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "school.mail"),
		KafkaGroupID:  getEnv("KAFKA_GROUP_ID", "mail-svc"),
		KafkaUsername: os.Getenv("KAFKA_USERNAME"),
		KafkaPassword: os.Getenv("KAFKA_PASSWORD"),
	}
}

// Validate reports the first missing setting the API server cannot start without.
func (c Config) Validate() error {
	switch {
	case c.DatabaseDSN == "":
		return errors.New("config: DATABASE_DSN is required")
	case c.FrontendURL == "":
		return errors.New("config: FRONTEND_URL is required")
	case c.AccessSecret == "":
		return errors.New("config: JWT_SECRET is required")
	case c.CloudinaryUrl == "":
		return errors.New("config: CLOUDINARY_URL is required")
	}

	switch c.MailTransport {
	case MailTransportSMTP:
		if c.SMTPHost == "" {
			return errors.New("config: SMTP_HOST is required for smtp mail transport")
		}
	case MailTransportKafka:
		if c.KafkaBroker == "" {
			return errors.New("config: KAFKA_BROKER is required for kafka mail transport")
		}
	default:
		return errors.New("config: MAIL_TRANSPORT must be smtp or kafka")
	}
	return nil
}

// ValidateWorker reports the first missing setting mail-svc cannot start without.
func (c Config) ValidateWorker() error {
	switch {
	case c.KafkaBroker == "":
		return errors.New("config: KAFKA_BROKER is required")
	case c.SMTPHost == "":
		return errors.New("config: SMTP_HOST is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, using %d", key, v, fallback)
		return fallback
	}
	return n
}

// "5000" and ":5000" are both accepted.
func normalizePort(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}
