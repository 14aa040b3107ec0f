package chatbot

import (
	"container/list"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrTranscriptNotFound is returned for unknown or evicted transcripts
var ErrTranscriptNotFound = errors.New("transcript not found")

// TranscriptStore holds the transcripts of browser sessions
type TranscriptStore interface {
	Create(ctx context.Context) (id string, err error)
	Load(ctx context.Context, id string) ([]Message, error)
	Append(ctx context.Context, id string, msgs ...Message) error
	// Touch marks the transcript as in use, returning ErrTranscriptNotFound
	// if it has expired or been evicted
	Touch(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// LRUStore implements TranscriptStore with a size-bounded LRU cache
type LRUStore struct {
	mu       sync.Mutex
	maxBytes int
	curBytes int
	cache    map[string]*list.Element
	lru      *list.List
}

type cacheEntry struct {
	id        string
	messages  []Message
	updatedAt time.Time
	bytes     int
}

// NewLRUStore creates a new LRU transcript store
func NewLRUStore(maxBytes int) *LRUStore {
	return &LRUStore{
		maxBytes: maxBytes,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

func estimateBytes(msgs []Message) int {
	data, _ := json.Marshal(msgs)
	return len(data)
}

// Create creates a new, empty transcript
func (s *LRUStore) Create(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := &cacheEntry{id: uuid.NewString(), updatedAt: time.Now()}
	entry.bytes = estimateBytes(entry.messages)
	s.evictIfNeeded(entry.bytes)

	s.cache[entry.id] = s.lru.PushFront(entry)
	s.curBytes += entry.bytes

	return entry.id, nil
}

// Load returns a copy of the transcript's messages
func (s *LRUStore) Load(ctx context.Context, id string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.cache[id]
	if !ok {
		return nil, ErrTranscriptNotFound
	}
	s.lru.MoveToFront(elem)
	return append([]Message(nil), elem.Value.(*cacheEntry).messages...), nil
}

// Append adds msgs to the end of a transcript
func (s *LRUStore) Append(ctx context.Context, id string, msgs ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.cache[id]
	if !ok {
		return ErrTranscriptNotFound
	}

	entry := elem.Value.(*cacheEntry)
	oldBytes := entry.bytes

	entry.messages = append(entry.messages, msgs...)
	entry.updatedAt = time.Now()

	entry.bytes = estimateBytes(entry.messages)
	s.curBytes += entry.bytes - oldBytes

	s.lru.MoveToFront(elem)
	s.evictIfNeeded(0)

	return nil
}

// Touch moves the transcript to the front of the cache
func (s *LRUStore) Touch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.cache[id]
	if !ok {
		return ErrTranscriptNotFound
	}
	s.lru.MoveToFront(elem)
	return nil
}

// Ping always succeeds
func (s *LRUStore) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of cached transcripts
func (s *LRUStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// evictIfNeeded never evicts the most recently used transcript
func (s *LRUStore) evictIfNeeded(additionalBytes int) {
	for s.curBytes+additionalBytes > s.maxBytes && s.lru.Len() > 1 {
		oldest := s.lru.Back()
		entry := oldest.Value.(*cacheEntry)
		s.lru.Remove(oldest)
		delete(s.cache, entry.id)
		s.curBytes -= entry.bytes
	}
}

// StoreView is a View that appends to a transcript in a TranscriptStore.
// Store errors are logged, never shown to the user.
type StoreView struct {
	store  TranscriptStore
	id     string
	logger *zap.Logger
}

// NewStoreView returns a View for the transcript id. logger should already
// carry the transcript ID.
func NewStoreView(store TranscriptStore, id string, logger *zap.Logger) *StoreView {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreView{store: store, id: id, logger: logger}
}

func (v *StoreView) Append(m Message) {
	if err := v.store.Append(context.Background(), v.id, m); err != nil {
		v.logger.Error("Could not append message to transcript",
			zap.String("message_id", m.ID),
			zap.Error(err),
		)
	}
}

// ScrollToEnd is a no-op; rendered pages are anchored at the newest message
func (v *StoreView) ScrollToEnd() {}

// ClearInput is a no-op; rendered pages start with an empty input
func (v *StoreView) ClearInput() {}
