// Package api implements HTTP handlers and helpers for the tour planning service.
package api

import (
	"net/http"
	"strings"
)

type Principal struct {
	Tenant string
	Role   string // admin, planner, viewer
	UserID string
}

// getPrincipal extracts tenant and role from JWT or headers.
// - If Authorization: Bearer is present, uses configured verifier (dev/hmac/jwks).
// - Else falls back to headers for dev.
func (s *Server) getPrincipal(r *http.Request) Principal {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") && s.Auth != nil {
		tok := strings.TrimSpace(authz[len("Bearer "):])
		if pr, err := s.Auth.Verify(tok); err == nil {
			return Principal{Tenant: normalizeTenantID(pr.Tenant), Role: pr.Role, UserID: pr.UserID}
		}
	}
	tenant := r.Header.Get("X-Tenant-Id")
	role := r.Header.Get("X-Role")
	userID := r.Header.Get("X-User-Id")
	if tenant == "" {
		tenant = "t_demo"
	}
	tenant = normalizeTenantID(tenant)
	if role == "" {
		role = "admin"
	}
	return Principal{Tenant: tenant, Role: role, UserID: userID}
}

// normalizeTenantID canonicalizes tenant identifiers from tokens or headers.
func normalizeTenantID(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool { return p.Role == "admin" }

// CanPlan reports whether the principal may create or delete plans.
func (p Principal) CanPlan() bool { return p.Role == "admin" || p.Role == "planner" }
