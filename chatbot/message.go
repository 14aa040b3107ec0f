package chatbot

import (
	"time"

	"github.com/google/uuid"
)

// Role is the author of a Message
type Role string

// Roles
const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Label is the name shown next to a message
func (r Role) Label() string {
	if r == RoleUser {
		return "You"
	}
	return "EGPT"
}

// Class is the CSS class of a message body
func (r Role) Class() string {
	if r == RoleUser {
		return "user-message"
	}
	return "bot-response"
}

// Kind is what a Message renders as
type Kind string

// Kinds
const (
	KindText    Kind = "text"
	KindPDF     Kind = "pdf"
	KindWebsite Kind = "website"
	KindError   Kind = "error"
)

// Message is a single entry of a transcript. Messages are never mutated after creation.
type Message struct {
	ID        string    `json:"id"`
	Seq       uint64    `json:"seq"` // submission the message belongs to
	Role      Role      `json:"role"`
	Kind      Kind      `json:"kind"`
	Text      string    `json:"text,omitempty"` // text and error messages
	URL       string    `json:"url,omitempty"`  // pdf and website embeds
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage returns a Message with a fresh ID
func NewMessage(seq uint64, role Role, kind Kind, text, url string) Message {
	return Message{
		ID:        uuid.NewString(),
		Seq:       seq,
		Role:      role,
		Kind:      kind,
		Text:      text,
		URL:       url,
		CreatedAt: time.Now(),
	}
}
