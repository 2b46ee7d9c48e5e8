package guard

import (
	"path"
	"strings"

	"github.com/MrEthical07/goAuthClient/session"
)

// LoginPath is where anonymous visitors of a protected route are sent.
const LoginPath = "/login"

// Route is one named view.
type Route struct {
	Path      string
	Protected bool
}

// DefaultRoutes returns the application's views. Only the dashboard and the
// database admin view require a session.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/"},
		{Path: "/register"},
		{Path: "/features"},
		{Path: "/login"},
		{Path: "/oauth/google/callback"},
		{Path: "/dashboard", Protected: true},
		{Path: "/download"},
		{Path: "/new"},
		{Path: "/history"},
		{Path: "/db-admin", Protected: true},
	}
}

// Decision is the outcome of evaluating a route.
type Decision struct {
	Render     bool
	RedirectTo string
}

// Evaluate renders public routes unconditionally and protected routes only
// when current is non-nil.
func Evaluate(current *session.Session, route Route) Decision {
	return evaluate(current, route, LoginPath)
}

func evaluate(current *session.Session, route Route, loginPath string) Decision {
	if !route.Protected || current != nil {
		return Decision{Render: true}
	}
	return Decision{RedirectTo: loginPath}
}

// Router is an immutable route table.
type Router struct {
	routes    map[string]Route
	loginPath string
}

// NewRouter builds a router over routes. A zero-length table falls back to
// [DefaultRoutes].
func NewRouter(routes []Route) *Router {
	if len(routes) == 0 {
		routes = DefaultRoutes()
	}
	r := &Router{
		routes:    make(map[string]Route, len(routes)),
		loginPath: LoginPath,
	}
	for _, route := range routes {
		r.routes[normalize(route.Path)] = route
	}
	return r
}

// WithLoginPath returns a copy of r that redirects to loginPath.
func (r *Router) WithLoginPath(loginPath string) *Router {
	next := *r
	if loginPath != "" {
		next.loginPath = loginPath
	}
	return &next
}

// Lookup returns the route registered for p, if any.
func (r *Router) Lookup(p string) (Route, bool) {
	route, ok := r.routes[normalize(p)]
	return route, ok
}

// Resolve evaluates p for current. Query strings are ignored.
func (r *Router) Resolve(p string, current *session.Session) Decision {
	route, ok := r.Lookup(p)
	if !ok {
		route = Route{Path: p}
	}
	return evaluate(current, route, r.loginPath)
}

func normalize(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
