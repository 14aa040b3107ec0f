package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/korylprince/egpt-chat/chatbot"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestRunPrintsResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.FormValue("query") {
		case "capacitor":
			w.Write([]byte(`{"ai_response": "Capacitors store charge.", "pdf_embed_url": "/pdfs/capacitor.pdf", "embedded_website": ""}`))
		default:
			http.Error(w, "failed", http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	var out bytes.Buffer
	view := &terminalView{out: &out}
	client := chatbot.NewClient(chatbot.NewSearchClient(server.URL), view, zaptest.NewLogger(t))

	in := strings.NewReader("capacitor\n\n  \nbroken\nexit\n")
	run(context.Background(), client, view, chatbot.NewTranscript(), in, zaptest.NewLogger(t))

	got := out.String()
	assert.Contains(t, got, "EGPT: Capacitors store charge.\nEGPT: [PDF] /pdfs/capacitor.pdf\n")
	assert.Contains(t, got, "EGPT: "+chatbot.Apology)
	assert.NotContains(t, got, "[Website]")
	assert.NotContains(t, got, "You: capacitor\n", "user messages are not echoed")
	assert.True(t, strings.HasSuffix(got, "Goodbye!\n"))
}

func TestRunEndOfInputWaitsForPending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ai_response": "IoT connects devices."}`))
	}))
	defer server.Close()

	var out bytes.Buffer
	view := &terminalView{out: &out}
	client := chatbot.NewClient(chatbot.NewSearchClient(server.URL), view, nil)

	run(context.Background(), client, view, chatbot.NewTranscript(), strings.NewReader("iot"), zaptest.NewLogger(t))

	assert.Contains(t, out.String(), "EGPT: IoT connects devices.")
	assert.False(t, client.Pending())
}

func TestRunStopsOnCancel(t *testing.T) {
	var out bytes.Buffer
	view := &terminalView{out: &out}
	client := chatbot.NewClient(chatbot.NewSearchClient("http://localhost:0"), view, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, w := io.Pipe()
	defer w.Close()
	run(ctx, client, view, chatbot.NewTranscript(), r, zaptest.NewLogger(t))

	assert.Contains(t, out.String(), "Goodbye!")
}

func TestRunHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ai_response": "Robots sense and act.", "embedded_website": "https://robohub.org/"}`))
	}))
	defer server.Close()

	var out bytes.Buffer
	view := &terminalView{out: &out}
	history := chatbot.NewTranscript()
	client := chatbot.NewClient(chatbot.NewSearchClient(server.URL), chatbot.NewMultiView(history, view), nil)

	run(context.Background(), client, view, history, strings.NewReader("history\nrobotics\nHISTORY\nquit\n"), zaptest.NewLogger(t))

	got := out.String()
	assert.Contains(t, got, "(no messages yet)")
	assert.Contains(t, got, "You: robotics\nEGPT: Robots sense and act.\nEGPT: [Website] https://robohub.org/\n")
	assert.Equal(t, 3, history.Len())
}
