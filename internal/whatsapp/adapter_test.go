package whatsapp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Robinhohocepied/mediflow/internal/engine"
)

type stubDialogue struct {
	reply *engine.Reply
	calls []string
}

func (s *stubDialogue) Process(_ context.Context, channel, externalID, text string) (*engine.Reply, error) {
	s.calls = append(s.calls, channel+"|"+externalID+"|"+text)
	return s.reply, nil
}

type stubSender struct {
	texts   []string
	buttons [][]Button
}

func (s *stubSender) SendText(_ context.Context, _, body string) error {
	s.texts = append(s.texts, body)
	return nil
}

func (s *stubSender) SendButtons(_ context.Context, _, body string, buttons []Button) error {
	s.buttons = append(s.buttons, buttons)
	return nil
}

func TestAdapterSendsTextReply(t *testing.T) {
	dialogue := &stubDialogue{reply: &engine.Reply{Kind: engine.KindText, Body: "Bonjour 👋"}}
	sender := &stubSender{}
	a := NewAdapter("verify", sender, dialogue, nil)

	a.handleInbound(NormalizedMessage{From: "32470000001", Text: "bonjour"})

	require.Len(t, dialogue.calls, 1)
	assert.Equal(t, "whatsapp|32470000001|bonjour", dialogue.calls[0])
	require.Len(t, sender.texts, 1)
	assert.Equal(t, "Bonjour 👋", sender.texts[0])
}

func TestAdapterSendsOptionsAsButtons(t *testing.T) {
	dialogue := &stubDialogue{reply: &engine.Reply{
		Kind: engine.KindOptions,
		Body: "Choisissez",
		Options: []engine.Option{
			{ID: "slot_1", Label: "lundi 09h00"},
			{ID: "slot_2", Label: "lundi 10h00"},
		},
	}}
	sender := &stubSender{}
	a := NewAdapter("verify", sender, dialogue, nil)

	a.handleInbound(NormalizedMessage{From: "32470000001", Text: "mardi matin"})

	require.Len(t, sender.buttons, 1)
	require.Len(t, sender.buttons[0], 2)
	assert.Equal(t, "slot_1", sender.buttons[0][0].ID)
	assert.Empty(t, sender.texts)
}

func TestAdapterSuppressedReplySendsNothing(t *testing.T) {
	dialogue := &stubDialogue{reply: nil}
	sender := &stubSender{}
	a := NewAdapter("verify", sender, dialogue, nil)

	a.handleInbound(NormalizedMessage{From: "32470000001", Text: "encore là ?"})

	assert.Empty(t, sender.texts)
	assert.Empty(t, sender.buttons)
}
