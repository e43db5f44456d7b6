package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string
	DatabaseURL   string

	// Clinic identity and operating window. The weekend rule is an
	// explicit setting applied by every mutating entry point.
	ClinicName      string
	ClinicTimezone  string
	OpenHour        int
	CloseHour       int
	ClosedWeekends  bool
	ConflictWindow  time.Duration
	SlotStep        time.Duration

	// Reminder triggers, local wall-clock "HH:MM".
	AppointmentReminderAt string
	PaymentReminderAt     string
	RemindersEnabled      bool

	// Auth
	JWTSecret string

	// Notification gateway
	EmailProvider     string // sendgrid | ses | stub
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
	SESFromName       string
	AWSRegion         string
	SMSProvider       string // stub | webhook
	SMSWebhookURL     string
	SMSFromNumber     string

	// Scheduling lock
	RedisAddr     string
	RedisPassword string
	LockTTL       time.Duration

	CORSAllowedOrigins string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		ClinicName:     getEnv("CLINIC_NAME", "Oakpoint Health"),
		ClinicTimezone: getEnv("CLINIC_TZ", "UTC"),
		OpenHour:       getEnvAsInt("CLINIC_OPEN_HOUR", 8),
		CloseHour:      getEnvAsInt("CLINIC_CLOSE_HOUR", 18),
		ClosedWeekends: getEnvAsBool("CLINIC_CLOSED_WEEKENDS", true),
		ConflictWindow: getEnvAsDuration("CONFLICT_WINDOW", 30*time.Minute),
		SlotStep:       getEnvAsDuration("SLOT_STEP", 30*time.Minute),

		AppointmentReminderAt: getEnv("APPOINTMENT_REMINDER_AT", "08:00"),
		PaymentReminderAt:     getEnv("PAYMENT_REMINDER_AT", "09:00"),
		RemindersEnabled:      getEnvAsBool("REMINDERS_ENABLED", true),

		JWTSecret: getEnv("JWT_SECRET", ""),

		EmailProvider:     getEnv("EMAIL_PROVIDER", "stub"),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Oakpoint Health"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "Oakpoint Health"),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		SMSProvider:       getEnv("SMS_PROVIDER", "stub"),
		SMSWebhookURL:     getEnv("SMS_WEBHOOK_URL", ""),
		SMSFromNumber:     getEnv("SMS_FROM_NUMBER", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		LockTTL:       getEnvAsDuration("SCHED_LOCK_TTL", 10*time.Second),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
	}
}

// Location resolves the clinic timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
