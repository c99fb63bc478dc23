package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendText(t *testing.T) {
	var got sendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"messages":[{"id":"wamid.out"}]}`))
	}))
	defer srv.Close()

	c := NewClient("token-1", "phone-1", srv.URL, false, nil)

	err := c.SendText(context.Background(), "+32 470 00 00 01", "Bonjour")

	require.NoError(t, err)
	assert.Equal(t, "Bearer token-1", auth)
	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "32470000001", got.To, "phone must be digit-sanitized")
	require.NotNil(t, got.Text)
	assert.Equal(t, "Bonjour", got.Text.Body)
}

func TestSendButtons(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"messages":[{"id":"wamid.out"}]}`))
	}))
	defer srv.Close()

	c := NewClient("token-1", "phone-1", srv.URL, false, nil)

	err := c.SendButtons(context.Background(), "32470000001", "Choisissez", []Button{
		{ID: "slot_1", Title: "lundi 09h00"},
		{ID: "slot_2", Title: "lundi 10h00"},
		{ID: "slot_3", Title: "lundi 11h00"},
		{ID: "slot_4", Title: "jamais envoyé"},
	})

	require.NoError(t, err)
	require.NotNil(t, got.Interactive)
	assert.Equal(t, "button", got.Interactive.Type)
	assert.Equal(t, "Choisissez", got.Interactive.Body.Body)
	require.Len(t, got.Interactive.Action.Buttons, 3, "cap at three buttons")
	assert.Equal(t, "slot_1", got.Interactive.Action.Buttons[0].Reply.ID)
}

func TestSendAPIErrorRetriesThenFails(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":190,"message":"Invalid OAuth access token"}}`))
	}))
	defer srv.Close()

	c := NewClient("bad-token", "phone-1", srv.URL, false, nil)

	err := c.SendText(context.Background(), "32470000001", "Bonjour")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error 190")
	assert.Equal(t, sendAttempts, calls)
}

func TestSendRecoversOnRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"code":500,"message":"transient"}}`))
			return
		}
		w.Write([]byte(`{"messages":[{"id":"wamid.out"}]}`))
	}))
	defer srv.Close()

	c := NewClient("token-1", "phone-1", srv.URL, false, nil)

	err := c.SendText(context.Background(), "32470000001", "Bonjour")

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSendDryRunSkipsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("dry run must not hit the network")
	}))
	defer srv.Close()

	c := NewClient("token-1", "phone-1", srv.URL, true, nil)

	assert.NoError(t, c.SendText(context.Background(), "32470000001", "Bonjour"))
}
