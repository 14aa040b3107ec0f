package httpapi

import (
	"sync"
	"time"

	"github.com/korylprince/egpt-chat/chatbot"
)

const sessionKeyLength = 64

//SessionStore is an interface to an arbitrary session backend.
type SessionStore interface {
	//Create stores session and returns its new sessionID. If the backend malfunctions,
	//sessionID will be an empty string and err will be non-nil.
	Create(session *Session) (sessionID string, err error)

	//Check returns the session for sessionID.
	//If sessionID is not valid, session will be nil.
	//If the backend malfunctions, session will be nil and err will be non-nil.
	Check(sessionID string) (session *Session, err error)
}

//Session is a browser chat session: one transcript, one client, and the live sockets viewing it
type Session struct {
	TranscriptID string
	Client       *chatbot.Client
	Hub          *chatbot.Hub
	Expires      time.Time
}

//MemorySessionStore represents a SessionStore that uses an in-memory map
type MemorySessionStore struct {
	store    map[string]*Session
	duration time.Duration
	mu       *sync.Mutex
}

//scavenge removes stale records every interval until stop is closed
func scavenge(m *MemorySessionStore, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.removeExpired(time.Now())
		}
	}
}

//NewMemorySessionStore returns a new MemorySessionStore with the given expiration duration.
//Expired sessions are scavenged hourly until stop is closed.
func NewMemorySessionStore(duration time.Duration, stop <-chan struct{}) *MemorySessionStore {
	m := &MemorySessionStore{
		store:    make(map[string]*Session),
		duration: duration,
		mu:       new(sync.Mutex),
	}
	go scavenge(m, time.Hour, stop)
	return m
}

//Create stores session under a new random sessionID
func (m *MemorySessionStore) Create(session *Session) (sessionID string, err error) {
	id, err := randString(sessionKeyLength)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	session.Expires = time.Now().Add(m.duration)
	m.store[id] = session
	m.mu.Unlock()
	return id, nil
}

//Check returns the session for sessionID and extends its expiration. If sessionID is not valid, session will be nil.
//err will always be nil.
func (m *MemorySessionStore) Check(sessionID string) (session *Session, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.store[sessionID]; ok {
		if s.Expires.After(time.Now()) {
			s.Expires = time.Now().Add(m.duration)
			return s, nil
		}
		delete(m.store, sessionID)
	}
	return nil, nil
}

//Len returns the number of stored sessions, expired or not
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

func (m *MemorySessionStore) removeExpired(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.store {
		if s.Expires.Before(now) {
			delete(m.store, id)
		}
	}
}
