package guard

import "strings"

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
	ExpiredPath   = "/login?reason=expired"
)

var publicPaths = map[string]struct{}{
	"/":       {},
	"/login":  {},
	"/signup": {},
}

// IsPublic reports whether path is reachable without a session. Query
// strings are ignored.
func IsPublic(path string) bool {
	path, _, _ = strings.Cut(path, "?")
	_, ok := publicPaths[path]
	return ok
}

// Resolve applies the route rule and returns where to redirect, or "" to stay.
// Nothing is decided while the session is still loading.
func Resolve(path string, hasSession, loading bool) string {
	if loading {
		return ""
	}
	public := IsPublic(path)
	switch {
	case !hasSession && !public:
		return LoginPath
	case hasSession && public:
		return DashboardPath
	}
	return ""
}
