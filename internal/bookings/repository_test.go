package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertPersistsAllFields(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	scheduled := time.Date(2025, 1, 14, 10, 30, 0, 0, time.UTC)
	rec := Record{
		ID:             uuid.New(),
		ConversationID: "whatsapp:+32470000001",
		Channel:        "whatsapp",
		PatientName:    "Alice Dupont",
		PatientPhone:   "+32470000001",
		PatientEmail:   "alice@example.com",
		Service:        "controle",
		Reason:         "controle",
		EventID:        "evt-1",
		ScheduledFor:   scheduled,
		CreatedAt:      time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(rec.ID, rec.ConversationID, rec.Channel, rec.PatientName, rec.PatientPhone,
			rec.PatientEmail, rec.Service, rec.Reason, rec.EventID, rec.ScheduledFor, rec.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewRepositoryWithDB(mock)
	require.NoError(t, repo.Insert(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertGeneratesIDWhenMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(pgxmock.AnyArg(), "whatsapp:+32470000001", "whatsapp", "", "", "", "", "", "",
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewRepositoryWithDB(mock)
	err = repo.Insert(context.Background(), Record{
		ConversationID: "whatsapp:+32470000001",
		Channel:        "whatsapp",
		ScheduledFor:   time.Date(2025, 1, 14, 10, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	scheduled := time.Date(2025, 1, 14, 10, 30, 0, 0, time.UTC)
	created := time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, conversation_id").
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "conversation_id", "channel", "patient_name", "patient_phone",
			"patient_email", "service", "reason", "event_id", "scheduled_for", "created_at",
		}).AddRow(id, "whatsapp:+32470000001", "whatsapp", "Alice Dupont", "+32470000001",
			"alice@example.com", "controle", "controle", "evt-1", scheduled, created))

	repo := NewRepositoryWithDB(mock)
	records, err := repo.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)
	assert.Equal(t, "evt-1", records[0].EventID)
	assert.True(t, records[0].ScheduledFor.Equal(scheduled))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS bookings").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	repo := NewRepositoryWithDB(mock)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
