package calendar

import (
	"context"

	"github.com/Robinhohocepied/mediflow/internal/config"
	"github.com/Robinhohocepied/mediflow/pkg/logging"
)

// FromConfig selects the calendar oracle: Google when credentials are
// configured and usable, otherwise the in-memory calendar so the booking
// flow still completes in dev.
func FromConfig(ctx context.Context, cfg *config.Config, logger *logging.Logger) Oracle {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.GoogleCredsJSON != "" && cfg.GoogleCalendarID != "" {
		oracle, err := NewGoogleCalendar(ctx, GoogleOptions{
			CredentialsJSON: cfg.GoogleCredsJSON,
			CalendarID:      cfg.GoogleCalendarID,
			Timezone:        cfg.ClinicTimezone,
			SendUpdates:     cfg.CalendarSendUpdates,
		})
		if err == nil {
			logger.Info("calendar provider selected", "provider", "google")
			return oracle
		}
		logger.Warn("google calendar unavailable, falling back to in-memory", "error", err)
	}
	logger.Info("calendar provider selected", "provider", "inmemory")
	return NewInMemory()
}
