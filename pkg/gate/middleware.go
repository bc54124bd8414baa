package gate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"keygate-hq/keygate/pkg/registry"
)

// CredentialSource defines where to extract API credentials from.
type CredentialSource struct {
	Type   string // header, query
	Name   string // Header name or query param
	Scheme string // "Bearer", etc. (optional)
}

// DefaultSources is the extraction order used when none is configured:
// the X-API-Key header, then an Authorization Bearer token, then the
// api_key query parameter.
func DefaultSources() []CredentialSource {
	return []CredentialSource{
		{Type: "header", Name: "X-API-Key"},
		{Type: "header", Name: "Authorization", Scheme: "Bearer"},
		{Type: "query", Name: "api_key"},
	}
}

// Middleware guards protected handlers with the admission gate.
type Middleware struct {
	gate    *Gate
	sources []CredentialSource
	logger  *slog.Logger
}

// NewMiddleware creates admission middleware. An empty sources slice falls
// back to DefaultSources.
func NewMiddleware(g *Gate, sources []CredentialSource) *Middleware {
	if len(sources) == 0 {
		sources = DefaultSources()
	}
	return &Middleware{
		gate:    g,
		sources: sources,
		logger:  slog.Default().With("component", "gate.middleware"),
	}
}

// Handle wraps an HTTP handler with admission control. Denied requests
// receive a JSON error with the decision's status; admitted requests carry
// the resolved identity in their context.
func (m *Middleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := m.extractCredential(r)

		decision := m.gate.Admit(r.Context(), raw)
		if !decision.Admitted {
			m.logger.Warn("request denied",
				"reason", decision.Reason,
				"status", decision.Status,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			writeDenial(w, decision)
			return
		}

		ctx := ContextWithIdentity(r.Context(), decision.Identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractCredential extracts the raw credential from the request using the
// configured sources, trying each in order. Returns "" when none matches;
// the gate turns that into a credential_missing denial.
func (m *Middleware) extractCredential(r *http.Request) string {
	for _, source := range m.sources {
		switch source.Type {
		case "header":
			value := r.Header.Get(source.Name)
			if value == "" {
				continue
			}
			if source.Scheme != "" {
				prefix := source.Scheme + " "
				if strings.HasPrefix(value, prefix) {
					return strings.TrimPrefix(value, prefix)
				}
				continue
			}
			return value

		case "query":
			if value := r.URL.Query().Get(source.Name); value != "" {
				return value
			}
		}
	}
	return ""
}

// writeDenial writes the decision as a JSON error response.
func writeDenial(w http.ResponseWriter, decision *Decision) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(decision.Status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": string(decision.Reason),
	})
}

// Context key for the admitted identity.
type contextKey string

const identityKey contextKey = "keygate_identity"

// ContextWithIdentity returns a context carrying the admitted identity.
func ContextWithIdentity(ctx context.Context, identity *registry.KeyIdentity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext retrieves the admitted identity from a request
// context. The second return is false if the request did not pass through
// the admission middleware.
func IdentityFromContext(ctx context.Context) (*registry.KeyIdentity, bool) {
	identity, ok := ctx.Value(identityKey).(*registry.KeyIdentity)
	return identity, ok
}
