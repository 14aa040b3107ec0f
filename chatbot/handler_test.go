package chatbot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newLiveServer(t *testing.T, searcher Searcher) (*httptest.Server, *Transcript, *Hub) {
	transcript := NewTranscript()
	hub := NewHub(zap.NewNop())
	client := NewClient(searcher, NewMultiView(transcript, hub), zaptest.NewLogger(t))

	resolve := func(r *http.Request) (*Client, *Hub, error) {
		if r.URL.Query().Get("session") != "ok" {
			return nil, nil, errors.New("no session")
		}
		return client, hub, nil
	}

	server := httptest.NewServer(NewHandler(resolve, 10*time.Second, zap.NewNop()))
	t.Cleanup(server.Close)
	return server, transcript, hub
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?session=ok"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (h *Hub) sockets() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

func readUntilDone(t *testing.T, conn *websocket.Conn) []ServerMessage {
	var msgs []ServerMessage
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg ServerMessage
		require.NoError(t, conn.ReadJSON(&msg))
		msgs = append(msgs, msg)
		if msg.Type == MessageTypeDone {
			return msgs
		}
	}
}

func typesOf(msgs []ServerMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Type)
	}
	return out
}

func TestHandlerRejectsUnknownSession(t *testing.T) {
	server, _, _ := newLiveServer(t, &fakeSearcher{resp: fullResponse()})

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandlerStreamsSubmission(t *testing.T) {
	server, transcript, _ := newLiveServer(t, &fakeSearcher{resp: fullResponse()})
	conn := dial(t, server)

	require.NoError(t, conn.WriteJSON(ClientMessage{Query: " capacitor "}))
	msgs := readUntilDone(t, conn)

	assert.Equal(t, []string{
		MessageTypeMessage, MessageTypeScroll, MessageTypeClear,
		MessageTypeMessage, MessageTypeScroll,
		MessageTypeMessage, MessageTypeScroll,
		MessageTypeMessage, MessageTypeScroll,
		MessageTypeDone,
	}, typesOf(msgs))

	require.NotNil(t, msgs[0].Message)
	assert.Equal(t, "capacitor", msgs[0].Message.Text)
	assert.Contains(t, msgs[0].HTML, `class="user-message"`)
	require.NotNil(t, msgs[5].Message)
	assert.Equal(t, KindPDF, msgs[5].Message.Kind)
	assert.Contains(t, msgs[5].HTML, `class="pdf-display"`)
	assert.Equal(t, uint64(1), msgs[9].Seq)

	assert.Equal(t, 4, transcript.Len())
}

func TestHandlerBusyAndEmpty(t *testing.T) {
	searcher := &fakeSearcher{resp: &SearchResponse{AIResponse: Some("done")}, release: make(chan struct{})}
	server, transcript, _ := newLiveServer(t, searcher)
	conn := dial(t, server)

	require.NoError(t, conn.WriteJSON(ClientMessage{Query: "first"}))
	require.NoError(t, conn.WriteJSON(ClientMessage{Query: "   "}))
	require.NoError(t, conn.WriteJSON(ClientMessage{Query: "second"}))

	var busy bool
	var seen []ServerMessage
	for !busy {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg ServerMessage
		require.NoError(t, conn.ReadJSON(&msg))
		seen = append(seen, msg)
		busy = msg.Type == MessageTypeBusy
	}
	assert.Equal(t, []string{MessageTypeMessage, MessageTypeScroll, MessageTypeClear, MessageTypeBusy}, typesOf(seen))

	close(searcher.release)
	msgs := readUntilDone(t, conn)
	assert.Equal(t, []string{MessageTypeMessage, MessageTypeScroll, MessageTypeDone}, typesOf(msgs))

	assert.Equal(t, 2, transcript.Len())
	assert.Equal(t, 1, searcher.count())
}

func TestHubBroadcastsToEverySocket(t *testing.T) {
	server, _, hub := newLiveServer(t, &fakeSearcher{resp: &SearchResponse{AIResponse: Some("hello")}})
	a := dial(t, server)
	b := dial(t, server)

	require.Eventually(t, func() bool { return hub.sockets() == 2 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, a.WriteJSON(ClientMessage{Query: "robotics"}))

	for _, conn := range []*websocket.Conn{a, b} {
		msgs := readUntilDone(t, conn)
		assert.Len(t, msgs, 6)
	}

	require.NoError(t, b.Close())
	require.Eventually(t, func() bool { return hub.sockets() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestHandlerEndsSocketWhenSessionExpires(t *testing.T) {
	transcript := NewTranscript()
	hub := NewHub(zap.NewNop())
	searcher := &fakeSearcher{resp: &SearchResponse{AIResponse: Some("hello")}}
	client := NewClient(searcher, NewMultiView(transcript, hub), zaptest.NewLogger(t))

	var expired atomic.Bool
	resolve := func(r *http.Request) (*Client, *Hub, error) {
		if expired.Load() {
			return nil, nil, errors.New("transcript expired")
		}
		return client, hub, nil
	}
	server := httptest.NewServer(NewHandler(resolve, 0, zap.NewNop()))
	defer server.Close()
	conn := dial(t, server)

	require.NoError(t, conn.WriteJSON(ClientMessage{Query: "first"}))
	readUntilDone(t, conn)

	expired.Store(true)
	require.NoError(t, conn.WriteJSON(ClientMessage{Query: "second"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageTypeError, msg.Type)
	assert.Equal(t, SessionExpired, msg.Error)

	// the server closes the socket after the error
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	assert.Equal(t, 1, searcher.count())
	assert.Equal(t, 2, transcript.Len())
}

func TestHubStalledSocketDoesNotBlockClient(t *testing.T) {
	server, _, hub := newLiveServer(t, &fakeSearcher{resp: fullResponse()})
	// never read from this socket
	dial(t, server)
	require.Eventually(t, func() bool { return hub.sockets() == 1 }, 5*time.Second, 10*time.Millisecond)

	big := strings.Repeat("x", 1<<20)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 4*sendBuffer; i++ {
			hub.Broadcast(ServerMessage{Type: MessageTypeError, Error: big})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Broadcast blocked on a stalled socket")
	}
	assert.Equal(t, 0, hub.sockets(), "a socket with a full queue is dropped")

	// the hub still accepts appends from a client
	view := NewTranscript()
	client := NewClient(&fakeSearcher{resp: fullResponse()}, NewMultiView(view, hub), zaptest.NewLogger(t))
	require.NoError(t, client.Submit(context.Background(), "capacitor"))
	assert.Equal(t, 4, view.Len())
}
