package guard

import (
	"context"
	"net/http"

	"github.com/MrEthical07/goAuthClient/session"
)

// SessionSource is satisfied by *session.Store.
type SessionSource interface {
	Get() *session.Session
}

type sessionContextKey struct{}

// SessionFromContext returns the session injected by [Middleware].
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return sess, ok && sess != nil
}

// Middleware gates next on a present session. It reads the store on every
// request, so a logout elsewhere takes effect on the next request.
func Middleware(store SessionSource, loginPath string) func(http.Handler) http.Handler {
	if loginPath == "" {
		loginPath = LoginPath
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var current *session.Session
			if store != nil {
				current = store.Get()
			}

			decision := evaluate(current, Route{Path: r.URL.Path, Protected: true}, loginPath)
			if !decision.Render {
				http.Redirect(w, r, decision.RedirectTo, http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, current)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Protect wraps next with [Middleware] only when the router marks the
// request path as protected.
func (r *Router) Protect(store SessionSource) func(http.Handler) http.Handler {
	gate := Middleware(store, r.loginPath)
	return func(next http.Handler) http.Handler {
		gated := gate(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if route, ok := r.Lookup(req.URL.Path); ok && route.Protected {
				gated.ServeHTTP(w, req)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
