package chatbot

import "encoding/json"

// SearchRequest is the payload sent to the search endpoint
type SearchRequest struct {
	Query string `json:"query"` // trimmed, never empty
}

// SearchResponse is the structured response from the search endpoint.
// Every field is independent; an absent field suppresses its message.
type SearchResponse struct {
	AIResponse      Optional `json:"ai_response"`
	PDFEmbedURL     Optional `json:"pdf_embed_url"`
	EmbeddedWebsite Optional `json:"embedded_website"`
}

// Optional is a string field with explicit presence. The backend sends empty
// strings for fields it has nothing for, so an empty value is not present.
type Optional struct {
	value string
	set   bool
}

// Some returns an Optional holding v. An empty v is not present.
func Some(v string) Optional {
	return Optional{value: v, set: v != ""}
}

// Get returns the value and whether it is present
func (o Optional) Get() (string, bool) {
	return o.value, o.set
}

// Present reports whether the field carries a value
func (o Optional) Present() bool {
	return o.set
}

// UnmarshalJSON accepts a JSON string or null. Any other JSON type is an error.
func (o *Optional) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Optional{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*o = Some(s)
	return nil
}

// MarshalJSON writes the value, or an empty string when absent
func (o Optional) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.value)
}

// ClientMessage is the message format from a live view socket to the server
type ClientMessage struct {
	Query string `json:"query"`
}

// ServerMessage is the message format from the server to a live view socket
type ServerMessage struct {
	Type    string   `json:"type"`              // see MessageType constants
	Message *Message `json:"message,omitempty"` // sent with "message"
	HTML    string   `json:"html,omitempty"`    // rendered message, sent with "message"
	Seq     uint64   `json:"seq,omitempty"`     // sent with "done"
	Error   string   `json:"error,omitempty"`   // sent with "error"
}

// Message types
const (
	MessageTypeMessage = "message"
	MessageTypeScroll  = "scroll"
	MessageTypeClear   = "clear"
	MessageTypeBusy    = "busy"
	MessageTypeDone    = "done"
	MessageTypeError   = "error"
)
