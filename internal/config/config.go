package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	RedactLogs    bool

	// Clinic scheduling parameters
	ClinicTimezone      string
	AppointmentDuration time.Duration
	MorningOpenHour     int
	MorningCloseHour    int
	AfternoonOpenHour   int
	AfternoonCloseHour  int
	SlotSearchDays      int
	SlotFallbackHour    int
	ReminderHoursBefore int

	// Dialogue thresholds
	TriageEscalationScore int
	IdentityMaxFailures   int

	// Session store
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	SessionTTL    time.Duration

	// Booking archive
	DatabaseURL string
	AdminToken  string

	// WhatsApp Cloud API
	WhatsAppToken       string
	WhatsAppVerifyToken string
	WhatsAppPhoneID     string
	WhatsAppBaseURL     string
	WhatsAppDryRun      bool

	// Google Calendar
	GoogleCredsJSON     string
	GoogleCalendarID    string
	CalendarSendUpdates bool
}

// Load reads configuration from environment variables. A .env file in the
// working directory is honored for local development but never overrides
// variables already set in the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		RedactLogs:    getEnvAsBool("REDACT_LOGS", true),

		ClinicTimezone:      getEnv("CLINIC_TZ", "Europe/Brussels"),
		AppointmentDuration: getEnvAsDuration("APPOINTMENT_DURATION", 30*time.Minute),
		MorningOpenHour:     getEnvAsInt("MORNING_OPEN_HOUR", 9),
		MorningCloseHour:    getEnvAsInt("MORNING_CLOSE_HOUR", 12),
		AfternoonOpenHour:   getEnvAsInt("AFTERNOON_OPEN_HOUR", 14),
		AfternoonCloseHour:  getEnvAsInt("AFTERNOON_CLOSE_HOUR", 18),
		SlotSearchDays:      getEnvAsInt("SLOT_SEARCH_DAYS", 10),
		SlotFallbackHour:    getEnvAsInt("SLOT_FALLBACK_HOUR", 10),
		ReminderHoursBefore: getEnvAsInt("REMINDER_HOURS_BEFORE", 24),

		TriageEscalationScore: getEnvAsInt("TRIAGE_ESCALATION_SCORE", 8),
		IdentityMaxFailures:   getEnvAsInt("IDENTITY_MAX_FAILURES", 2),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		AdminToken:  getEnv("ADMIN_TOKEN", ""),

		WhatsAppToken:       getEnv("WHATSAPP_TOKEN", ""),
		WhatsAppVerifyToken: getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppPhoneID:     getEnv("WHATSAPP_PHONE_ID", ""),
		WhatsAppBaseURL:     getEnv("WHATSAPP_BASE_URL", "https://graph.facebook.com/v18.0"),
		WhatsAppDryRun:      getEnvAsBool("WHATSAPP_DRY_RUN", true),

		GoogleCredsJSON:     getEnv("GOOGLE_CREDS_JSON", ""),
		GoogleCalendarID:    getEnv("GOOGLE_CALENDAR_ID", ""),
		CalendarSendUpdates: getEnvAsBool("CALENDAR_SEND_UPDATES", false),
	}
}

// Location resolves the configured clinic time zone, falling back to UTC
// when the identifier is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.ClinicTimezone))
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
