package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Robinhohocepied/mediflow/pkg/logging"
)

const (
	defaultBaseURL     = "https://graph.facebook.com/v18.0"
	defaultHTTPTimeout = 10 * time.Second
	sendAttempts       = 3
)

// Client sends messages via the WhatsApp Cloud API.
type Client struct {
	token      string
	phoneID    string
	baseURL    string
	dryRun     bool
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a Cloud API client. With dryRun set, sends are
// logged instead of delivered, which keeps local development free of
// Meta credentials.
func NewClient(token, phoneID, baseURL string, dryRun bool, logger *logging.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		token:      token,
		phoneID:    phoneID,
		baseURL:    strings.TrimRight(baseURL, "/"),
		dryRun:     dryRun,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     logger,
	}
}

// SetBaseURL overrides the API base URL (useful for testing).
func (c *Client) SetBaseURL(base string) {
	c.baseURL = strings.TrimRight(base, "/")
}

type sendRequest struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             *Text            `json:"text,omitempty"`
	Interactive      *sendInteractive `json:"interactive,omitempty"`
}

type sendInteractive struct {
	Type   string     `json:"type"`
	Body   Text       `json:"body"`
	Action sendAction `json:"action"`
}

type sendAction struct {
	Buttons []sendButton `json:"buttons"`
}

type sendButton struct {
	Type  string      `json:"type"`
	Reply ButtonReply `json:"reply"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	return c.send(ctx, sendRequest{
		MessagingProduct: "whatsapp",
		To:               sanitizePhone(to),
		Type:             "text",
		Text:             &Text{Body: body},
	})
}

// SendButtons sends an interactive reply-button message. The Cloud API
// allows at most three buttons; extras are dropped.
func (c *Client) SendButtons(ctx context.Context, to, body string, buttons []Button) error {
	if len(buttons) > 3 {
		buttons = buttons[:3]
	}
	out := make([]sendButton, 0, len(buttons))
	for _, b := range buttons {
		out = append(out, sendButton{Type: "reply", Reply: ButtonReply{ID: b.ID, Title: b.Title}})
	}
	return c.send(ctx, sendRequest{
		MessagingProduct: "whatsapp",
		To:               sanitizePhone(to),
		Type:             "interactive",
		Interactive: &sendInteractive{
			Type:   "button",
			Body:   Text{Body: body},
			Action: sendAction{Buttons: out},
		},
	})
}

func (c *Client) send(ctx context.Context, req sendRequest) error {
	if c.dryRun {
		c.logger.Info("whatsapp send dry run",
			"to", logging.RedactPhone(req.To),
			"type", req.Type,
		)
		return nil
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("whatsapp: marshal send request: %w", err)
	}
	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)

	var lastErr error
	delay := 500 * time.Millisecond
	for attempt := 0; attempt < sendAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		lastErr = c.doSend(ctx, url, payload)
		if lastErr == nil {
			return nil
		}
		c.logger.Warn("whatsapp send failed, retrying",
			"attempt", attempt+1,
			"error", lastErr,
		)
	}
	return fmt.Errorf("whatsapp: send after %d attempts: %w", sendAttempts, lastErr)
}

func (c *Client) doSend(ctx context.Context, url string, payload []byte) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	var parsed sendResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if parsed.Error != nil {
		return fmt.Errorf("API error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func sanitizePhone(to string) string {
	var b strings.Builder
	for _, ch := range to {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}
