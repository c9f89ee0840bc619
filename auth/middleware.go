package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const identityKey contextKey = "auth.identity"

// Identity is the authenticated caller as seen by the authorization layer.
type Identity struct {
	Subject string
	Roles   []string
}

// IdentityResolver extracts the caller identity from a request. A nil
// identity means the request is anonymous.
type IdentityResolver interface {
	Resolve(r *http.Request) *Identity
}

// HeaderResolver reads the subject and roles from trusted headers set by
// the fronting gateway. It performs no verification of its own; deploy it
// only behind a gateway that strips client-supplied copies.
type HeaderResolver struct {
	SubjectHeader string
	RolesHeader   string
}

func NewHeaderResolver() *HeaderResolver {
	return &HeaderResolver{SubjectHeader: "X-Auth-Subject", RolesHeader: "X-Auth-Roles"}
}

func (h *HeaderResolver) Resolve(r *http.Request) *Identity {
	subject := strings.TrimSpace(r.Header.Get(h.SubjectHeader))
	if subject == "" {
		return nil
	}
	var roles []string
	for _, role := range strings.Split(r.Header.Get(h.RolesHeader), ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	return &Identity{Subject: subject, Roles: roles}
}

// FromContext returns the identity attached by Middleware, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// Middleware resolves the caller identity and attaches it to the request
// context. It never rejects; enforcement belongs to RequireRole.
func Middleware(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := resolver.Resolve(r); id != nil {
				r = r.WithContext(context.WithValue(r.Context(), identityKey, id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission enforces the policy set against the request path.
// Read methods map to the "read" action, everything else to "write".
// Role claims carried by the identity resolver are honored as grants for
// the request's lifetime.
func RequirePermission(mgr *RBACManager, reject func(w http.ResponseWriter, r *http.Request, status int)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := FromContext(r.Context())
			if id == nil {
				reject(w, r, http.StatusUnauthorized)
				return
			}
			act := "write"
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				act = "read"
			}
			if !allowed(mgr, id, r.URL.Path, act) {
				reject(w, r, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func allowed(mgr *RBACManager, id *Identity, obj, act string) bool {
	if mgr.Allowed(id.Subject, obj, act) {
		return true
	}
	// Claimed roles act as the subject when the enforcer has no binding
	// of its own for this caller.
	for _, role := range id.Roles {
		if mgr.Allowed(role, obj, act) {
			return true
		}
	}
	return false
}
