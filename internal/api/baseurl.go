package api

import "strings"

// Default API roots for local development and production.
const (
	DevBaseURL  = "http://localhost:4000/api/v1"
	ProdBaseURL = "https://nullscape-backend.onrender.com/api/v1"
)

// ResolveBaseURL picks the API root. A non-empty override always wins;
// otherwise a local host (empty, localhost or 127.0.0.1) selects the
// development root and anything else the production root.
func ResolveBaseURL(override, host string) string {
	if o := strings.TrimSpace(override); o != "" {
		return strings.TrimRight(o, "/")
	}
	if IsLocalHost(host) {
		return DevBaseURL
	}
	return ProdBaseURL
}

// IsLocalHost reports whether host names the local machine. A port suffix is ignored.
func IsLocalHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if i := strings.LastIndex(h, ":"); i >= 0 && !strings.HasSuffix(h, "]") {
		h = h[:i]
	}
	return h == "" || h == "localhost" || h == "127.0.0.1"
}
