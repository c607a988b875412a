package rpc

import (
	"context"
	"encoding/json"
)

// Request is the POST body: a method name and at most one params
// object. GET requests carry the method in the "command" query
// parameter instead.
type Request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// Role gates admin-only methods. Admin is granted by client IP against
// the configured allow list.
type Role int

const (
	RoleGuest Role = iota
	RoleAdmin
)

// ReqContext carries per-request information into handlers.
type ReqContext struct {
	Context  context.Context
	Role     Role
	ClientIP string
}

// HandlerFunc executes one method. A nil *Error means success.
type HandlerFunc func(ctx *ReqContext, params json.RawMessage) (interface{}, *Error)

type method struct {
	handler HandlerFunc
	admin   bool
}

// MethodRegistry maps wire names to handlers.
type MethodRegistry struct {
	methods map[string]method
}

func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{methods: make(map[string]method)}
}

// Register adds a public method.
func (r *MethodRegistry) Register(name string, h HandlerFunc) {
	r.methods[name] = method{handler: h}
}

// RegisterAdmin adds a method callable only from admin IPs.
func (r *MethodRegistry) RegisterAdmin(name string, h HandlerFunc) {
	r.methods[name] = method{handler: h, admin: true}
}

func (r *MethodRegistry) get(name string) (method, bool) {
	m, ok := r.methods[name]
	return m, ok
}

// List returns the registered method names.
func (r *MethodRegistry) List() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	return names
}
