package httpapi

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/korylprince/egpt-chat/chatbot"
	"go.uber.org/zap"
)

//GET /
func handleReadChat(cfg *Config) returnHandler {
	return func(w http.ResponseWriter, r *http.Request) *handlerResponse {
		sess := r.Context().Value(SessionKey).(*Session)

		msgs, err := cfg.Transcripts.Load(r.Context(), sess.TranscriptID)
		if errors.Is(err, chatbot.ErrTranscriptNotFound) {
			cfg.Logger.Warn("Transcript missing, rendering empty page", zap.String("transcript_id", sess.TranscriptID))
		} else if err != nil {
			return handleError(http.StatusInternalServerError, fmt.Errorf("Could not load transcript: %v", err))
		}

		page := &ChatPage{Pending: sess.Client.Pending()}
		for _, m := range msgs {
			html, err := chatbot.RenderHTML(m)
			if err != nil {
				return handleError(http.StatusInternalServerError, err)
			}
			page.Messages = append(page.Messages, html)
		}
		if len(msgs) > 0 {
			page.Anchor = "msg-" + msgs[len(msgs)-1].ID
		}

		return &handlerResponse{Code: http.StatusOK, Body: page}
	}
}

//POST /
func handleSubmitChat(cfg *Config) returnHandler {
	return func(w http.ResponseWriter, r *http.Request) *handlerResponse {
		sess := r.Context().Value(SessionKey).(*Session)
		location := cfg.Prefix + "/"

		if err := r.ParseForm(); err != nil {
			return handleError(http.StatusBadRequest, fmt.Errorf("Could not parse form: %v", err))
		}

		ctx, cancel := cfg.searchContext()
		defer cancel()

		err := sess.Client.Submit(ctx, r.PostForm.Get("query"))
		var tErr *chatbot.TransportError
		switch {
		case err == nil, errors.Is(err, chatbot.ErrEmptyQuery):
			return redirect(location, nil)
		case errors.Is(err, chatbot.ErrBusy), errors.As(err, &tErr):
			//the transcript already shows the outcome
			return redirect(location, err)
		}
		return handleError(http.StatusInternalServerError, err)
	}
}

//GET /health
func handleHealth(cfg *Config) returnHandler {
	return func(w http.ResponseWriter, r *http.Request) *handlerResponse {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := cfg.Transcripts.Ping(ctx); err != nil {
			return &handlerResponse{
				Code: http.StatusInternalServerError,
				Body: &HealthResponse{Status: "unhealthy", Store: cfg.StoreName, Error: err.Error()},
				Err:  err,
			}
		}

		return &handlerResponse{Code: http.StatusOK, Body: &HealthResponse{Status: "healthy", Store: cfg.StoreName}}
	}
}

func mustParseTemplates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}
