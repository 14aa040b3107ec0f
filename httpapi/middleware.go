package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type handlerResponse struct {
	Code     int
	Body     interface{}
	Redirect string
	Session  *Session
	Err      error
}

type returnHandler func(http.ResponseWriter, *http.Request) *handlerResponse

func logMiddleware(next returnHandler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := next(w, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("code", resp.Code),
			zap.String("status", http.StatusText(resp.Code)),
			zap.Duration("duration", time.Since(start)),
		}
		if r.URL.RawQuery != "" {
			fields = append(fields, zap.String("query", r.URL.RawQuery))
		}
		if resp.Session != nil {
			fields = append(fields, zap.String("transcript_id", resp.Session.TranscriptID))
		}
		if resp.Err != nil {
			fields = append(fields, zap.Error(resp.Err))
		}

		logger.Info("Request", fields...)
	})
}

func jsonMiddleware(next returnHandler) returnHandler {
	return func(w http.ResponseWriter, r *http.Request) *handlerResponse {
		w.Header().Set("Content-Type", "application/json")
		resp := next(w, r)

		w.WriteHeader(resp.Code)
		e := json.NewEncoder(w)
		if err := e.Encode(resp.Body); err != nil {
			return handleError(http.StatusInternalServerError, fmt.Errorf("Could not encode json: %v", err))
		}
		return resp
	}
}

//htmlMiddleware renders the page template on success, the error template on failure,
//and follows resp.Redirect with 303 See Other
func htmlMiddleware(next returnHandler, tmpl *template.Template) returnHandler {
	return func(w http.ResponseWriter, r *http.Request) *handlerResponse {
		resp := next(w, r)

		if resp.Redirect != "" {
			w.Header().Set("Location", resp.Redirect)
			w.WriteHeader(resp.Code)
			return resp
		}

		name := "page"
		if resp.Code != http.StatusOK {
			name = "error"
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(resp.Code)
		if err := tmpl.ExecuteTemplate(w, name, resp.Body); err != nil {
			// headers are already written; record the failure for the log line
			resp.Err = fmt.Errorf("Could not render %s template: %v", name, err)
		}
		return resp
	}
}

//sessionMiddleware loads the session named by the session cookie, creating one if needed
func sessionMiddleware(next returnHandler, cfg *Config) returnHandler {
	return func(w http.ResponseWriter, r *http.Request) *handlerResponse {
		sess, err := cfg.lookupSession(r)
		if err != nil {
			return handleError(http.StatusInternalServerError, fmt.Errorf("Could not check session key: %v", err))
		}

		if sess == nil {
			var key string
			sess, key, err = cfg.newSession(r.Context())
			if err != nil {
				return handleError(http.StatusInternalServerError, fmt.Errorf("Could not create session: %v", err))
			}
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    key,
				Path:     cfg.cookiePath(),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), SessionKey, sess)
		resp := next(w, r.WithContext(ctx))
		resp.Session = sess

		return resp
	}
}
