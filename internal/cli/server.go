package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/curvemkt/curved/internal/config"
	"github.com/curvemkt/curved/internal/di"
	"github.com/curvemkt/curved/internal/logging"
)

// shutdownTimeout bounds the HTTP drain on SIGTERM.
const shutdownTimeout = 10 * time.Second

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the curved daemon",
	Long: `Run the trading daemon: JSON-RPC and websocket streams on the RPC
listener, plus the optional read-only gRPC query service. State is
restored from the configured stores before the listeners accept
traffic.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if debug {
		cfg.Log.Level = "debug"
	}

	log, err := logging.New(cfg.LoggingConfig())
	if err != nil {
		return err
	}
	defer log.Sync()

	provider := di.NewProvider(di.New(), cfg, log, Version)
	if err := provider.RegisterAll(); err != nil {
		return err
	}
	defer func() {
		if cerr := provider.Close(); cerr != nil {
			log.Warn("storage close failed", zap.Error(cerr))
		}
	}()

	// Resolving the graduator hooks auto-graduation into the machine;
	// it has to exist before the first buy can cross a target.
	if _, err := provider.Graduator(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	restored, err := provider.RestoreState(ctx)
	if err != nil {
		return err
	}
	log.Info("state restored", zap.Int("assets", restored))

	rpcSrv, err := provider.RPCServer()
	if err != nil {
		return err
	}
	query, err := provider.QueryServer()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(rpcSrv.Start)
	if query != nil {
		g.Go(query.Start)
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		if query != nil {
			query.Stop()
		}
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return rpcSrv.Shutdown(drainCtx)
	})

	log.Info("curved daemon up",
		zap.String("version", Version),
		zap.String("rpc", cfg.RPCAddr()),
		zap.Bool("grpc", query != nil))

	if err := g.Wait(); err != nil && !isSignalExit(ctx) {
		return err
	}
	return nil
}

// isSignalExit distinguishes an operator-requested stop from a listener
// failure so a clean SIGTERM exits zero.
func isSignalExit(ctx context.Context) bool {
	return ctx.Err() != nil
}
