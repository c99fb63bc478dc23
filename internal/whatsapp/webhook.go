package whatsapp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// WebhookHandler handles WhatsApp webhook verification and inbound
// messages. onMessage is called for each normalized message.
type WebhookHandler struct {
	verifyToken string
	onMessage   func(msg NormalizedMessage)
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(verifyToken string, onMessage func(NormalizedMessage)) *WebhookHandler {
	return &WebhookHandler{verifyToken: verifyToken, onMessage: onMessage}
}

// HandleVerification handles the GET webhook verification challenge.
func (h *WebhookHandler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && challenge != "" && h.verifyToken != "" && token == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, challenge)
		return
	}
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// HandleInbound handles POST webhook events. Meta expects a fast 200;
// message processing happens through onMessage after the body parses.
func (h *WebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "EVENT_RECEIVED")

	for _, msg := range Normalize(event) {
		if h.onMessage != nil {
			h.onMessage(msg)
		}
	}
}

// Normalize flattens a webhook event into inbound messages.
func Normalize(event WebhookEvent) []NormalizedMessage {
	var out []NormalizedMessage
	for _, entry := range event.Entry {
		for _, change := range entry.Changes {
			value := change.Value
			contactName := ""
			if len(value.Contacts) > 0 {
				contactName = value.Contacts[0].Profile.Name
			}
			for _, m := range value.Messages {
				norm := NormalizedMessage{
					MessageID:   m.ID,
					Timestamp:   m.Timestamp,
					From:        m.From,
					ToPhoneID:   value.Metadata.PhoneNumberID,
					Type:        m.Type,
					ContactName: contactName,
				}
				if norm.From == "" && len(value.Contacts) > 0 {
					norm.From = value.Contacts[0].WaID
				}
				switch {
				case m.Text != nil:
					norm.Text = m.Text.Body
				case m.Interactive != nil:
					reply := m.Interactive.ButtonReply
					if reply == nil {
						reply = m.Interactive.ListReply
					}
					if reply == nil {
						continue
					}
					norm.Text = SelectionToken(reply.ID, reply.Title)
				default:
					continue
				}
				out = append(out, norm)
			}
		}
	}
	return out
}

// SelectionToken translates a structured button identifier into the
// plain-text token the dialogue engine understands. Unknown identifiers
// fall back to the button title.
func SelectionToken(id, title string) string {
	switch {
	case strings.HasPrefix(id, "slot_"):
		return strings.TrimPrefix(id, "slot_")
	case strings.HasPrefix(id, "service_"):
		return strings.TrimPrefix(id, "service_")
	}
	return title
}
