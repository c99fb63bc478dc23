package whatsapp

import (
	"context"
	"net/http"
	"time"

	"github.com/Robinhohocepied/mediflow/internal/engine"
	"github.com/Robinhohocepied/mediflow/pkg/logging"
)

// Channel is the identifier this adapter reports to the engine.
const Channel = "whatsapp"

const turnTimeout = 30 * time.Second

// Dialogue is the engine surface the adapter drives.
type Dialogue interface {
	Process(ctx context.Context, channel, externalID, text string) (*engine.Reply, error)
}

// Sender is the outbound surface, satisfied by *Client.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
	SendButtons(ctx context.Context, to, body string, buttons []Button) error
}

// Adapter is the WhatsApp channel adapter. Inbound webhooks are
// acknowledged immediately; each message runs through the dialogue
// engine in its own goroutine and the reply goes back out via the
// Cloud API.
type Adapter struct {
	webhook *WebhookHandler
	sender  Sender
	svc     Dialogue
	logger  *logging.Logger
}

// NewAdapter wires the webhook, dialogue service and outbound client.
func NewAdapter(verifyToken string, sender Sender, svc Dialogue, logger *logging.Logger) *Adapter {
	if logger == nil {
		logger = logging.Default()
	}
	a := &Adapter{sender: sender, svc: svc, logger: logger}
	a.webhook = NewWebhookHandler(verifyToken, func(msg NormalizedMessage) {
		go a.handleInbound(msg)
	})
	return a
}

// HandleVerification handles GET /webhooks/whatsapp.
func (a *Adapter) HandleVerification(w http.ResponseWriter, r *http.Request) {
	a.webhook.HandleVerification(w, r)
}

// HandleWebhook handles POST /webhooks/whatsapp.
func (a *Adapter) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	a.webhook.HandleInbound(w, r)
}

func (a *Adapter) handleInbound(msg NormalizedMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	reply, err := a.svc.Process(ctx, Channel, msg.From, msg.Text)
	if err != nil {
		a.logger.Error("whatsapp turn failed",
			"from", logging.RedactPhone(msg.From),
			"error", err,
		)
		return
	}
	if reply == nil {
		return
	}

	if reply.Kind == engine.KindOptions && len(reply.Options) > 0 {
		buttons := make([]Button, 0, len(reply.Options))
		for _, o := range reply.Options {
			buttons = append(buttons, Button{ID: o.ID, Title: o.Label})
		}
		if err := a.sender.SendButtons(ctx, msg.From, reply.Body, buttons); err != nil {
			a.logger.Error("whatsapp send buttons failed",
				"to", logging.RedactPhone(msg.From),
				"error", err,
			)
		}
		return
	}

	if err := a.sender.SendText(ctx, msg.From, reply.Body); err != nil {
		a.logger.Error("whatsapp send text failed",
			"to", logging.RedactPhone(msg.From),
			"error", err,
		)
	}
}
