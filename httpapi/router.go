package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/korylprince/egpt-chat/chatbot"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

//SessionCookie is the name of the cookie holding the session key
const SessionCookie = "egpt_session"

//Config holds the dependencies of the HTTP API
type Config struct {
	Sessions    SessionStore
	Transcripts chatbot.TranscriptStore
	StoreName   string //reported by the health check
	Searcher    chatbot.Searcher

	//SearchTimeout bounds each search request; zero means no timeout
	SearchTimeout time.Duration

	//Prefix is the URL prefix the router is mounted at, without trailing slash
	Prefix string

	Logger *zap.Logger
}

//NewRouter returns an HTTP router for the chat front-end
func NewRouter(cfg *Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	tmpl := mustParseTemplates()

	//construct middleware
	var page = func(h returnHandler) http.Handler {
		return logMiddleware(htmlMiddleware(sessionMiddleware(h, cfg), tmpl), cfg.Logger)
	}
	var api = func(h returnHandler) http.Handler {
		return logMiddleware(jsonMiddleware(h), cfg.Logger)
	}

	r := mux.NewRouter()

	r.Path("/").Methods("GET").Handler(page(handleReadChat(cfg)))
	r.Path("/").Methods("POST").Handler(page(handleSubmitChat(cfg)))

	r.Path("/ws").Methods("GET").Handler(chatbot.NewHandler(cfg.resolveSession, cfg.SearchTimeout, cfg.Logger.Named("ws")))

	r.Path("/health").Methods("GET").Handler(api(handleHealth(cfg)))
	r.Path("/metrics").Methods("GET").Handler(promhttp.Handler())

	r.NotFoundHandler = api(notFoundHandler)

	return r
}

func (cfg *Config) cookiePath() string {
	return cfg.Prefix + "/"
}

//lookupSession returns the session named by the request's cookie, or nil if there is none
//or its transcript has expired. A live transcript is refreshed.
func (cfg *Config) lookupSession(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	sess, err := cfg.Sessions.Check(cookie.Value)
	if err != nil || sess == nil {
		return nil, err
	}

	err = cfg.Transcripts.Touch(r.Context(), sess.TranscriptID)
	if errors.Is(err, chatbot.ErrTranscriptNotFound) {
		cfg.Logger.Info("Transcript expired, session ended", zap.String("transcript_id", sess.TranscriptID))
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("could not refresh transcript: %w", err)
	}
	return sess, nil
}

//newSession creates a transcript and a client rendering into it and into the session's sockets
func (cfg *Config) newSession(ctx context.Context) (*Session, string, error) {
	id, err := cfg.Transcripts.Create(ctx)
	if err != nil {
		return nil, "", err
	}

	logger := cfg.Logger.With(zap.String("transcript_id", id))
	hub := chatbot.NewHub(logger)
	view := chatbot.NewMultiView(chatbot.NewStoreView(cfg.Transcripts, id, logger), hub)

	sess := &Session{
		TranscriptID: id,
		Client:       chatbot.NewClient(cfg.Searcher, view, logger),
		Hub:          hub,
	}

	key, err := cfg.Sessions.Create(sess)
	if err != nil {
		return nil, "", err
	}
	return sess, key, nil
}

//resolveSession resolves sockets to existing sessions only; the page creates them
func (cfg *Config) resolveSession(r *http.Request) (*chatbot.Client, *chatbot.Hub, error) {
	sess, err := cfg.lookupSession(r)
	if err != nil {
		return nil, nil, fmt.Errorf("could not check session key: %w", err)
	}
	if sess == nil {
		return nil, nil, errors.New("no session")
	}
	return sess.Client, sess.Hub, nil
}

func (cfg *Config) searchContext() (context.Context, context.CancelFunc) {
	if cfg.SearchTimeout > 0 {
		return context.WithTimeout(context.Background(), cfg.SearchTimeout)
	}
	return context.WithCancel(context.Background())
}
