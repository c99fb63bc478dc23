package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "Europe/Brussels", cfg.ClinicTimezone)
	assert.Equal(t, 30*time.Minute, cfg.AppointmentDuration)
	assert.Equal(t, 9, cfg.MorningOpenHour)
	assert.Equal(t, 12, cfg.MorningCloseHour)
	assert.Equal(t, 14, cfg.AfternoonOpenHour)
	assert.Equal(t, 18, cfg.AfternoonCloseHour)
	assert.Equal(t, 8, cfg.TriageEscalationScore)
	assert.Equal(t, 2, cfg.IdentityMaxFailures)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.RedactLogs)
	assert.True(t, cfg.WhatsAppDryRun)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CLINIC_TZ", "Europe/Paris")
	t.Setenv("APPOINTMENT_DURATION", "45m")
	t.Setenv("TRIAGE_ESCALATION_SCORE", "7")
	t.Setenv("REDACT_LOGS", "false")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "Europe/Paris", cfg.ClinicTimezone)
	assert.Equal(t, 45*time.Minute, cfg.AppointmentDuration)
	assert.Equal(t, 7, cfg.TriageEscalationScore)
	assert.False(t, cfg.RedactLogs)
}

func TestLocation(t *testing.T) {
	cfg := &Config{ClinicTimezone: "Europe/Brussels"}
	assert.Equal(t, "Europe/Brussels", cfg.Location().String())

	cfg = &Config{ClinicTimezone: "Mars/Olympus"}
	assert.Equal(t, time.UTC, cfg.Location())
}
