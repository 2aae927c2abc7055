package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	commonerrors "lead-intake/internal/common/errors"
	"lead-intake/internal/session"
)

type contextKey string

const sessionIDKey contextKey = "sessionID"

// SessionHeader carries the per-tab session id. The middleware mints one
// for first-time callers and echoes it back so the client can persist it
// for the rest of the browser session.
const SessionHeader = "X-Session-ID"

func sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := r.Header.Get(SessionHeader)
		if sid == "" {
			sid = uuid.NewString()
		}
		w.Header().Set(SessionHeader, sid)

		ctx := context.WithValue(r.Context(), sessionIDKey, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authRequired rejects requests whose session has no valid access token.
// The lead and wizard routes sit behind it; auth endpoints do not.
func authRequired(sessions *session.Store, responder *commonerrors.ErrorResponder) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := sessions.AccessToken(r.Context(), sessionID(r)); err != nil {
				responder.Respond(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sessionID(r *http.Request) string {
	if sid, ok := r.Context().Value(sessionIDKey).(string); ok {
		return sid
	}
	return ""
}
