package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ServerConfig is the HTTP listener configuration.
type ServerConfig struct {
	// Addr is the host:port to bind.
	Addr string

	// AdminIPs are client addresses granted the admin role. Requests
	// from any other address can only call public methods.
	AdminIPs []string
}

// Server serves the JSON-RPC API over HTTP and mounts the websocket
// stream hub. Responses are always HTTP 200; failures are reported in
// the body so clients handle one shape.
type Server struct {
	cfg      ServerConfig
	registry *MethodRegistry
	hub      *Hub
	log      *zap.Logger
	admins   map[string]struct{}
	http     *http.Server
}

// NewServer wires the method service and stream hub into an HTTP
// server. hub may be nil to disable the websocket endpoint.
func NewServer(cfg ServerConfig, svc *Service, hub *Hub, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:      cfg,
		registry: NewMethodRegistry(),
		hub:      hub,
		log:      log.Named("rpc"),
		admins:   make(map[string]struct{}, len(cfg.AdminIPs)),
	}
	svc.RegisterAll(s.registry)
	for _, ip := range cfg.AdminIPs {
		s.admins[strings.TrimSpace(ip)] = struct{}{}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRPC)
	mux.HandleFunc("/health", s.handleHealth)
	if hub != nil {
		mux.Handle("/ws", hub)
	}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start listens and serves until Shutdown.
func (s *Server) Start() error {
	s.log.Info("rpc server listening", zap.String("addr", s.cfg.Addr))
	if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains HTTP requests, then drops websocket connections.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	if s.hub != nil {
		s.hub.CloseAll()
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, `{"status":"ok"}`)
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		s.handleGet(w, r)
	case http.MethodPost:
		s.handlePost(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGet serves parameterless queries: GET /?command=server_info.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Query().Get("command")
	if method == "" {
		method = "server_info"
	}
	result, rpcErr := s.execute(r, method, nil)
	s.writeResponse(w, result, rpcErr)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeResponse(w, nil, errInternal(err))
		return
	}
	defer r.Body.Close()

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeResponse(w, nil, errParse(err.Error()))
		return
	}
	if req.Method == "" {
		s.writeResponse(w, nil, errMissingCommand())
		return
	}
	var params json.RawMessage
	if len(req.Params) > 0 {
		params = req.Params[0]
	}

	result, rpcErr := s.execute(r, req.Method, params)
	s.writeResponse(w, result, rpcErr)
}

func (s *Server) execute(r *http.Request, name string, params json.RawMessage) (interface{}, *Error) {
	m, ok := s.registry.get(name)
	if !ok {
		return nil, errMethodNotFound(name)
	}

	ctx := &ReqContext{
		Context:  r.Context(),
		Role:     RoleGuest,
		ClientIP: getClientIP(r),
	}
	if _, ok := s.admins[ctx.ClientIP]; ok {
		ctx.Role = RoleAdmin
	}
	if m.admin && ctx.Role < RoleAdmin {
		s.log.Warn("admin method denied",
			zap.String("method", name),
			zap.String("client_ip", ctx.ClientIP))
		return nil, errForbidden(name)
	}
	return m.handler(ctx, params)
}

func (s *Server) writeResponse(w http.ResponseWriter, result interface{}, rpcErr *Error) {
	var response map[string]interface{}
	if rpcErr != nil {
		response = map[string]interface{}{
			"status":        "error",
			"error":         rpcErr.Name,
			"error_code":    rpcErr.Code,
			"error_message": rpcErr.Message,
		}
	} else {
		response = map[string]interface{}{
			"status": "success",
			"result": result,
		}
	}

	data, err := json.Marshal(response)
	if err != nil {
		s.log.Error("response marshal failed", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// getClientIP resolves the caller's address, honoring proxy headers.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
