package engine

// Kind distinguishes a plain text reply from a structured option set.
type Kind string

const (
	KindText    Kind = "text"
	KindOptions Kind = "options"
)

// Option is one selectable item in an options reply.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Reply is the engine's outbound event. The caller renders it for its
// channel: options become interactive buttons on WhatsApp and a
// numbered list on plain-text channels, but the body already carries a
// numbered fallback so text-only rendering needs no extra work.
type Reply struct {
	Kind    Kind     `json:"kind"`
	Body    string   `json:"body"`
	Options []Option `json:"options,omitempty"`
}

func textReply(body string) *Reply {
	return &Reply{Kind: KindText, Body: body}
}

func optionsReply(body string, options []Option) *Reply {
	return &Reply{Kind: KindOptions, Body: body, Options: options}
}
