package domain

import "strings"

// Role is the resolved caller role, decided once per inbound event and
// passed explicitly through the call graph.
type Role string

const (
	RoleClient    Role = "client"
	RoleDeveloper Role = "developer"
	RoleWorker    Role = "worker"
)

// Roles resolves a user handle to a role from two static membership sets,
// loaded once at process start. Lookup is case-insensitive. A handle in
// both sets resolves to developer; an empty or unknown handle is a client.
type Roles struct {
	developers map[string]struct{}
	workers    map[string]struct{}
}

// NewRoles builds a resolver from the configured handle lists.
func NewRoles(developers, workers []string) *Roles {
	r := &Roles{
		developers: make(map[string]struct{}, len(developers)),
		workers:    make(map[string]struct{}, len(workers)),
	}
	for _, h := range developers {
		if h = strings.TrimSpace(h); h != "" {
			r.developers[strings.ToLower(h)] = struct{}{}
		}
	}
	for _, h := range workers {
		if h = strings.TrimSpace(h); h != "" {
			r.workers[strings.ToLower(h)] = struct{}{}
		}
	}
	return r
}

// Resolve maps a handle to its role.
func (r *Roles) Resolve(handle string) Role {
	h := strings.ToLower(strings.TrimSpace(handle))
	if h == "" {
		return RoleClient
	}
	if _, ok := r.developers[h]; ok {
		return RoleDeveloper
	}
	if _, ok := r.workers[h]; ok {
		return RoleWorker
	}
	return RoleClient
}
