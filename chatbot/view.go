package chatbot

import "sync"

// View is the live surface a Client renders into: an input field and a
// scrolling transcript container.
type View interface {
	// Append adds m to the end of the transcript
	Append(m Message)
	// ScrollToEnd scrolls the transcript to its newest message
	ScrollToEnd()
	// ClearInput empties the input field
	ClearInput()
}

// MultiView forwards every call to each of its views in order
type MultiView []View

// NewMultiView returns a View that fans out to views
func NewMultiView(views ...View) MultiView {
	return MultiView(views)
}

func (mv MultiView) Append(m Message) {
	for _, v := range mv {
		v.Append(m)
	}
}

func (mv MultiView) ScrollToEnd() {
	for _, v := range mv {
		v.ScrollToEnd()
	}
}

func (mv MultiView) ClearInput() {
	for _, v := range mv {
		v.ClearInput()
	}
}

// Transcript is an in-memory, append-only View
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
}

// NewTranscript returns an empty Transcript
func NewTranscript() *Transcript {
	return &Transcript{}
}

func (t *Transcript) Append(m Message) {
	t.mu.Lock()
	t.messages = append(t.messages, m)
	t.mu.Unlock()
}

// ScrollToEnd is a no-op; a Transcript has no viewport
func (t *Transcript) ScrollToEnd() {}

// ClearInput is a no-op; a Transcript has no input field
func (t *Transcript) ClearInput() {}

// Messages returns a copy of the transcript
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Message(nil), t.messages...)
}

// Len returns the number of messages
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}
