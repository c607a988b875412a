package grpcq

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/curvemkt/curved/internal/core/assetid"
	"github.com/curvemkt/curved/internal/core/fees"
	"github.com/curvemkt/curved/internal/core/market"
	"github.com/curvemkt/curved/internal/registry"
	"github.com/curvemkt/curved/internal/storage/historydb"
)

// History is the optional trade-history backend behind GetTrades and
// GetStats. *historydb.DB implements it; leaving it nil turns those
// queries off.
type History interface {
	TradesByAsset(ctx context.Context, asset assetid.AssetID, limit int) ([]registry.Trade, error)
	Stats(ctx context.Context, asset assetid.AssetID) (historydb.Stats, error)
}

// Deps carries the engine surfaces the query service reads from.
type Deps struct {
	Machine *market.Machine
	Dist    *fees.Distributor
	History History
	Log     *zap.Logger
	Version string
}

// Server serves read-only queries over gRPC. All handlers go through
// the engine's own read paths, so responses reflect committed state.
type Server struct {
	mu sync.RWMutex

	grpcServer *grpc.Server
	config     *ServerConfig
	listener   net.Listener
	running    bool

	machine *market.Machine
	dist    *fees.Distributor
	history History
	log     *zap.Logger
	version string
	started time.Time
}

// NewServer creates a query server with the given configuration.
func NewServer(cfg *ServerConfig, deps Deps) (*Server, error) {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Machine == nil {
		return nil, errors.New("market machine is required")
	}
	if deps.Dist == nil {
		return nil, errors.New("fee distributor is required")
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	opts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(cfg.MaxRecvMsgSize),
		grpc.MaxSendMsgSize(cfg.MaxSendMsgSize),
	}

	server := &Server{
		grpcServer: grpc.NewServer(opts...),
		config:     cfg,
		machine:    deps.Machine,
		dist:       deps.Dist,
		history:    deps.History,
		log:        log.Named("grpcq"),
		version:    deps.Version,
		started:    time.Now(),
	}
	RegisterQueryServer(server.grpcServer, server)

	return server, nil
}

// Start starts the server and begins accepting connections.
// This method blocks until the server is stopped or an error occurs.
func (s *Server) Start() error {
	listener, err := s.listen()
	if err != nil {
		return err
	}
	s.log.Info("query service listening", zap.String("addr", listener.Addr().String()))
	return s.grpcServer.Serve(listener)
}

// StartAsync starts the server in a goroutine and returns immediately.
// Returns an error if the server is already running or fails to listen.
func (s *Server) StartAsync() error {
	listener, err := s.listen()
	if err != nil {
		return err
	}
	s.log.Info("query service listening", zap.String("addr", listener.Addr().String()))

	go func() {
		if err := s.grpcServer.Serve(listener); err != nil {
			s.log.Error("query service stopped", zap.Error(err))
		}
	}()

	return nil
}

func (s *Server) listen() (net.Listener, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil, errors.New("server is already running")
	}
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return nil, err
	}
	s.listener = listener
	s.running = true
	return listener, nil
}

// Stop gracefully stops the server. It stops accepting new connections
// and waits for in-flight calls to complete.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.grpcServer.GracefulStop()
	s.running = false
}

// StopNow immediately stops the server without waiting for connections.
func (s *Server) StopNow() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.grpcServer.Stop()
	s.running = false
}

// IsRunning returns true if the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Address returns the address the server is listening on.
// Returns empty string if the server is not running.
func (s *Server) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
