package whatsapp

// Wire types for the WhatsApp Cloud API (Graph) webhook and send
// endpoints. Only the fields the assistant consumes are declared.

// WebhookEvent is the envelope Meta POSTs to the webhook.
type WebhookEvent struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	Metadata Metadata  `json:"metadata"`
	Contacts []Contact `json:"contacts"`
	Messages []Message `json:"messages"`
}

type Metadata struct {
	PhoneNumberID string `json:"phone_number_id"`
}

type Contact struct {
	WaID    string  `json:"wa_id"`
	Profile Profile `json:"profile"`
}

type Profile struct {
	Name string `json:"name"`
}

type Message struct {
	ID          string       `json:"id"`
	From        string       `json:"from"`
	Timestamp   string       `json:"timestamp"`
	Type        string       `json:"type"`
	Text        *Text        `json:"text,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
}

type Text struct {
	Body string `json:"body"`
}

type Interactive struct {
	Type        string       `json:"type"`
	ButtonReply *ButtonReply `json:"button_reply,omitempty"`
	ListReply   *ButtonReply `json:"list_reply,omitempty"`
}

type ButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// NormalizedMessage is one inbound patient message flattened out of the
// webhook envelope. Interactive replies are already translated into the
// plain-text token the dialogue engine understands.
type NormalizedMessage struct {
	MessageID   string
	Timestamp   string
	From        string
	ToPhoneID   string
	Type        string
	Text        string
	ContactName string
}

// Button is one interactive reply button on an outbound message. The
// Cloud API caps a message at three buttons, which matches the slot
// offer size.
type Button struct {
	ID    string
	Title string
}
