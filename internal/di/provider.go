package di

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/curvemkt/curved/internal/config"
	"github.com/curvemkt/curved/internal/core/fees"
	"github.com/curvemkt/curved/internal/core/graduation"
	"github.com/curvemkt/curved/internal/core/market"
	"github.com/curvemkt/curved/internal/events"
	"github.com/curvemkt/curved/internal/gate"
	"github.com/curvemkt/curved/internal/grpcq"
	"github.com/curvemkt/curved/internal/ledger"
	"github.com/curvemkt/curved/internal/rpc"
	"github.com/curvemkt/curved/internal/statestore"
	"github.com/curvemkt/curved/internal/storage/historydb"
	"github.com/curvemkt/curved/internal/storage/kvstore"
	"github.com/curvemkt/curved/internal/venue"
)

// Provider configures and registers services in the container.
type Provider struct {
	container *Container
	config    *config.Config
	log       *zap.Logger
	version   string
}

// NewProvider creates a new service provider.
func NewProvider(container *Container, cfg *config.Config, log *zap.Logger, version string) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{
		container: container,
		config:    cfg,
		log:       log,
		version:   version,
	}
}

// RegisterAll registers all services.
func (p *Provider) RegisterAll() error {
	p.container.Register(ServiceConfig, p.config)
	p.container.Register(ServiceLogger, p.log)

	p.registerStorageBuilders()
	p.registerEngineBuilders()
	p.registerServerBuilders()

	return nil
}

// registerStorageBuilders registers the persistence builders.
func (p *Provider) registerStorageBuilders() {
	p.container.RegisterBuilder(ServiceKVStore, func(c *Container) (interface{}, error) {
		var (
			db  kvstore.DB
			err error
		)
		switch p.config.Storage.Backend {
		case "pebble":
			db, err = kvstore.OpenPebble(p.config.Storage.Path)
		case "leveldb":
			db, err = kvstore.OpenLevelDB(p.config.Storage.Path)
		case "memory":
			db = kvstore.NewMemory()
		default:
			return nil, fmt.Errorf("unknown storage backend %q", p.config.Storage.Backend)
		}
		if err != nil {
			return nil, err
		}
		return kvstore.WithCompression(db, p.config.Storage.Compression)
	})

	p.container.RegisterBuilder(ServiceStateStore, func(c *Container) (interface{}, error) {
		db, err := c.Get(ServiceKVStore)
		if err != nil {
			return nil, err
		}
		return statestore.New(db.(kvstore.DB), p.config.Storage.CacheSize, p.log)
	})

	p.container.RegisterBuilder(ServiceHistoryDB, func(c *Container) (interface{}, error) {
		return historydb.Open(context.Background(), historydb.Config{
			Driver: p.config.History.Driver,
			DSN:    p.config.History.DSN,
		}, p.log)
	})
}

// registerEngineBuilders registers the trading engine builders.
func (p *Provider) registerEngineBuilders() {
	p.container.RegisterBuilder(ServiceTokens, func(c *Container) (interface{}, error) {
		return ledger.NewMemoryTokens(), nil
	})

	p.container.RegisterBuilder(ServiceNative, func(c *Container) (interface{}, error) {
		return ledger.NewMemoryNative(), nil
	})

	p.container.RegisterBuilder(ServiceHub, func(c *Container) (interface{}, error) {
		return rpc.NewHub(p.log), nil
	})

	p.container.RegisterBuilder(ServiceEvents, func(c *Container) (interface{}, error) {
		hub, err := c.Get(ServiceHub)
		if err != nil {
			return nil, err
		}
		return rpc.NewStreamPublisher(hub.(*rpc.Hub)), nil
	})

	p.container.RegisterBuilder(ServiceGate, func(c *Container) (interface{}, error) {
		wcfg, err := p.config.GateWindow()
		if err != nil {
			return nil, err
		}
		return gate.NewWindow(wcfg), nil
	})

	p.container.RegisterBuilder(ServiceFees, func(c *Container) (interface{}, error) {
		native, err := c.Get(ServiceNative)
		if err != nil {
			return nil, err
		}
		pub, err := c.Get(ServiceEvents)
		if err != nil {
			return nil, err
		}
		return fees.NewDistributor(
			p.config.FeeParams(),
			native.(ledger.Native),
			p.config.Fees.Vault,
			pub.(events.Publisher),
			p.log,
		), nil
	})

	p.container.RegisterBuilder(ServiceVenue, func(c *Container) (interface{}, error) {
		tokens, err := c.Get(ServiceTokens)
		if err != nil {
			return nil, err
		}
		native, err := c.Get(ServiceNative)
		if err != nil {
			return nil, err
		}
		return venue.NewAMM(
			p.config.Venue.FeeBps,
			tokens.(ledger.Tokens),
			native.(ledger.Native),
			p.log,
		), nil
	})

	p.container.RegisterBuilder(ServiceMachine, func(c *Container) (interface{}, error) {
		mcfg, err := p.config.MarketConfig()
		if err != nil {
			return nil, err
		}
		tokens, err := c.Get(ServiceTokens)
		if err != nil {
			return nil, err
		}
		native, err := c.Get(ServiceNative)
		if err != nil {
			return nil, err
		}
		dist, err := c.Get(ServiceFees)
		if err != nil {
			return nil, err
		}
		g, err := c.Get(ServiceGate)
		if err != nil {
			return nil, err
		}
		pub, err := c.Get(ServiceEvents)
		if err != nil {
			return nil, err
		}
		store, err := c.Get(ServiceStateStore)
		if err != nil {
			return nil, err
		}
		hist, err := c.Get(ServiceHistoryDB)
		if err != nil {
			return nil, err
		}
		db := hist.(*historydb.DB)

		return market.NewMachine(mcfg, market.Deps{
			Tokens:   tokens.(ledger.Tokens),
			Native:   native.(ledger.Native),
			Fees:     dist.(*fees.Distributor),
			Gate:     g.(gate.Gate),
			Events:   pub.(events.Publisher),
			Recorder: db,
			Creators: db,
			Store:    store.(*statestore.Store),
			Log:      p.log,
		}), nil
	})

	p.container.RegisterBuilder(ServiceGraduator, func(c *Container) (interface{}, error) {
		mcfg, err := p.config.MarketConfig()
		if err != nil {
			return nil, err
		}
		machine, err := c.Get(ServiceMachine)
		if err != nil {
			return nil, err
		}
		amm, err := c.Get(ServiceVenue)
		if err != nil {
			return nil, err
		}
		tokens, err := c.Get(ServiceTokens)
		if err != nil {
			return nil, err
		}
		native, err := c.Get(ServiceNative)
		if err != nil {
			return nil, err
		}
		dist, err := c.Get(ServiceFees)
		if err != nil {
			return nil, err
		}
		pub, err := c.Get(ServiceEvents)
		if err != nil {
			return nil, err
		}
		hist, err := c.Get(ServiceHistoryDB)
		if err != nil {
			return nil, err
		}
		db := hist.(*historydb.DB)
		m := machine.(*market.Machine)

		grad := graduation.NewCoordinator(mcfg, graduation.Deps{
			Book:     m,
			Venue:    amm.(venue.Venue),
			Tokens:   tokens.(ledger.Tokens),
			Native:   native.(ledger.Native),
			Fees:     dist.(*fees.Distributor),
			Events:   pub.(events.Publisher),
			Recorder: db,
			Creators: db,
			Log:      p.log,
		})
		m.SetGraduator(grad)
		return grad, nil
	})
}

// registerServerBuilders registers the RPC and query service builders.
func (p *Provider) registerServerBuilders() {
	p.container.RegisterBuilder(ServiceRPCService, func(c *Container) (interface{}, error) {
		machine, err := c.Get(ServiceMachine)
		if err != nil {
			return nil, err
		}
		grad, err := c.Get(ServiceGraduator)
		if err != nil {
			return nil, err
		}
		dist, err := c.Get(ServiceFees)
		if err != nil {
			return nil, err
		}
		hist, err := c.Get(ServiceHistoryDB)
		if err != nil {
			return nil, err
		}
		return rpc.NewService(rpc.ServiceDeps{
			Machine: machine.(*market.Machine),
			Grad:    grad.(*graduation.Coordinator),
			Dist:    dist.(*fees.Distributor),
			History: hist.(*historydb.DB),
			Log:     p.log,
			Version: p.version,
		}), nil
	})

	p.container.RegisterBuilder(ServiceRPCServer, func(c *Container) (interface{}, error) {
		svc, err := c.Get(ServiceRPCService)
		if err != nil {
			return nil, err
		}
		hub, err := c.Get(ServiceHub)
		if err != nil {
			return nil, err
		}
		return rpc.NewServer(rpc.ServerConfig{
			Addr:     p.config.RPCAddr(),
			AdminIPs: p.config.RPC.AdminIPs,
		}, svc.(*rpc.Service), hub.(*rpc.Hub), p.log), nil
	})

	p.container.RegisterBuilder(ServiceQuery, func(c *Container) (interface{}, error) {
		machine, err := c.Get(ServiceMachine)
		if err != nil {
			return nil, err
		}
		dist, err := c.Get(ServiceFees)
		if err != nil {
			return nil, err
		}
		hist, err := c.Get(ServiceHistoryDB)
		if err != nil {
			return nil, err
		}
		cfg := grpcq.DefaultServerConfig()
		cfg.Address = p.config.GRPCAddr()
		return grpcq.NewServer(cfg, grpcq.Deps{
			Machine: machine.(*market.Machine),
			Dist:    dist.(*fees.Distributor),
			History: hist.(*historydb.DB),
			Log:     p.log,
			Version: p.version,
		})
	})
}

// Machine returns the trading machine.
func (p *Provider) Machine() (*market.Machine, error) {
	svc, err := p.container.Get(ServiceMachine)
	if err != nil {
		return nil, err
	}
	return svc.(*market.Machine), nil
}

// Distributor returns the fee distributor.
func (p *Provider) Distributor() (*fees.Distributor, error) {
	svc, err := p.container.Get(ServiceFees)
	if err != nil {
		return nil, err
	}
	return svc.(*fees.Distributor), nil
}

// Graduator returns the graduation coordinator, wiring it into the
// machine on first use.
func (p *Provider) Graduator() (*graduation.Coordinator, error) {
	svc, err := p.container.Get(ServiceGraduator)
	if err != nil {
		return nil, err
	}
	return svc.(*graduation.Coordinator), nil
}

// StateStore returns the asset persistence layer.
func (p *Provider) StateStore() (*statestore.Store, error) {
	svc, err := p.container.Get(ServiceStateStore)
	if err != nil {
		return nil, err
	}
	return svc.(*statestore.Store), nil
}

// HistoryDB returns the trade-history database.
func (p *Provider) HistoryDB() (*historydb.DB, error) {
	svc, err := p.container.Get(ServiceHistoryDB)
	if err != nil {
		return nil, err
	}
	return svc.(*historydb.DB), nil
}

// RPCServer returns the JSON-RPC and websocket server.
func (p *Provider) RPCServer() (*rpc.Server, error) {
	svc, err := p.container.Get(ServiceRPCServer)
	if err != nil {
		return nil, err
	}
	return svc.(*rpc.Server), nil
}

// Hub returns the websocket hub.
func (p *Provider) Hub() (*rpc.Hub, error) {
	svc, err := p.container.Get(ServiceHub)
	if err != nil {
		return nil, err
	}
	return svc.(*rpc.Hub), nil
}

// QueryServer returns the gRPC query service, or nil when disabled.
func (p *Provider) QueryServer() (*grpcq.Server, error) {
	if !p.config.GRPC.Enabled {
		return nil, nil
	}
	svc, err := p.container.Get(ServiceQuery)
	if err != nil {
		return nil, err
	}
	return svc.(*grpcq.Server), nil
}

// GetConfig returns the configuration from the container.
func (p *Provider) GetConfig() *config.Config {
	return p.config
}

// RestoreState reloads persisted assets and the fee ledger into the
// engine. It must run before the servers take traffic. Returns the
// number of assets restored.
func (p *Provider) RestoreState(ctx context.Context) (int, error) {
	store, err := p.StateStore()
	if err != nil {
		return 0, err
	}
	machine, err := p.Machine()
	if err != nil {
		return 0, err
	}
	dist, err := p.Distributor()
	if err != nil {
		return 0, err
	}

	assets, states, err := store.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load assets: %w", err)
	}

	restored := 0
	for _, a := range assets {
		st, ok := states[a.ID]
		if !ok {
			p.log.Warn("asset has no trading state, skipping", zap.Stringer("asset", a.ID))
			continue
		}
		if res := machine.Restore(a, st); !res.IsApplied() {
			p.log.Warn("asset restore refused",
				zap.Stringer("asset", a.ID),
				zap.String("result", res.String()))
			continue
		}
		restored++
	}

	ledgerState, ok, err := store.LoadFees(ctx)
	if err != nil {
		return restored, fmt.Errorf("load fee ledger: %w", err)
	}
	if ok {
		dist.Restore(ledgerState)
	}

	return restored, nil
}

// Close releases storage resources. Only services that were actually
// built are touched; the history database closes before the key-value
// store it never depends on, keeping shutdown order deterministic.
func (p *Provider) Close() error {
	var firstErr error

	if p.container.Built(ServiceHistoryDB) {
		if svc, err := p.container.Get(ServiceHistoryDB); err == nil {
			if cerr := svc.(*historydb.DB).Close(); cerr != nil && firstErr == nil {
				firstErr = cerr
			}
		}
	}
	if p.container.Built(ServiceKVStore) {
		if svc, err := p.container.Get(ServiceKVStore); err == nil {
			if cerr := svc.(kvstore.DB).Close(); cerr != nil && firstErr == nil {
				firstErr = cerr
			}
		}
	}

	return firstErr
}
