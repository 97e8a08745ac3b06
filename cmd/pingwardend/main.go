// Command pingwardend is the network-monitoring daemon described in
// spec.md: it boots the probe supervisors, the HTTP API, the config file
// watcher, and (with --init) the interactive first-run wizard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/pingwarden/pingwarden/internal/api"
	"github.com/pingwarden/pingwarden/internal/config"
	"github.com/pingwarden/pingwarden/internal/logger"
	"github.com/pingwarden/pingwarden/internal/models"
	"github.com/pingwarden/pingwarden/internal/probe"
	"github.com/pingwarden/pingwarden/internal/storage"
	"github.com/pingwarden/pingwarden/internal/wizard"
)

// shutdownGrace bounds how long boot waits for the HTTP server to unwind on
// SIGINT/SIGTERM. In-flight handlers are not awaited past this, per spec.md
// §5; probe supervisors are cancelled, not awaited.
const shutdownGrace = 3 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "pingwardend:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.toml", "path to the config file")
	initFlag := flag.Bool("init", false, "run the interactive configuration wizard and exit")
	flag.Parse()

	path := normalizeConfigPath(*configPath)

	if *initFlag {
		return wizard.Run(path)
	}

	return boot(path)
}

// normalizeConfigPath appends a .toml extension when the given path has
// none, per spec.md §6's CLI contract.
func normalizeConfigPath(path string) string {
	if filepath.Ext(path) == "" {
		return path + ".toml"
	}

	return path
}

func boot(path string) error {
	editor := config.NewEditor(path)

	doc, err := editor.Read()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if doc.FillBlankTargetIDs(uuid.NewString) {
		if err := editor.CommitDocument(doc); err != nil {
			return fmt.Errorf("rewrite generated target ids: %w", err)
		}
	}

	cfg, err := doc.Typed()
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	config.ApplyDefaults(cfg, uuid.NewString)

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := storage.NewFileStore(cfg.Database.Path, log.WithComponent("storage"))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	stats, statsErr := storage.ReadStats(cfg.Database.Path, log.WithComponent("storage"))
	if statsErr == nil {
		log.Info().
			Int("targets", len(stats.Targets)).
			Int64("total_disk_bytes", stats.TotalDiskBytes).
			Msg("storage opened")
	}

	registry := probe.NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	state := api.NewState(store, editor, registry, nil, cfg, log.WithComponent("api"))
	state.StartSuper = supervisorStarter(ctx, state, registry, log.WithComponent("probe"))

	for _, t := range cfg.Targets {
		state.StartSuper(t)
	}

	stopWatcher := make(chan struct{})

	watcher, err := config.NewWatcher(path, cfg, log.WithComponent("config"), reconciler(state))
	if err != nil {
		log.Warn().Err(err).Msg("config watcher unavailable; hot reload disabled")
	} else {
		go watcher.Run(stopWatcher)
		defer close(stopWatcher)
	}

	router := api.NewRouter(state, cfg.Server.IngressOnly)

	addr := net.JoinHostPort(cfg.Server.Host, fmt.Sprintf("%d", cfg.Server.Port))

	server := &http.Server{Addr: addr, Handler: router}

	serverErr := make(chan error, 1)

	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}

		serverErr <- nil
	}()

	return waitForShutdown(server, store, log, serverErr)
}

// waitForShutdown blocks until SIGINT/SIGTERM or a fatal server error,
// then closes the store and returns, per spec.md §5: handlers in flight
// are not awaited.
func waitForShutdown(server *http.Server, store storage.Store, log logger.Logger, serverErr <-chan error) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var bootErr error

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
			bootErr = err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown")
	}

	if err := store.Close(); err != nil {
		log.Warn().Err(err).Msg("storage close")
	}

	return bootErr
}

// supervisorStarter returns the callback used both for the initial target
// set at boot and for watcher-driven reconciliation (spec.md §4.4/§4.11):
// it registers a fresh cancel handle and starts the supervisor goroutine,
// reading the live socket type from state on every burst.
func supervisorStarter(ctx context.Context, state *api.State, registry *probe.Registry, log logger.Logger) api.SupervisorStarter {
	return func(target models.Target) {
		supCtx, cancel := context.WithCancel(ctx)
		registry.Register(target.ID, cancel)

		socketType := func() models.SocketType {
			return state.Config().Ping.SocketType
		}

		go probe.Supervise(supCtx, target, socketType, state.Store, log)
	}
}

// reconciler applies a watcher-computed Delta to the registry and swaps in
// the new config, per spec.md §4.4 step 5: removed targets are aborted,
// changed targets are aborted then restarted, added targets are started.
// The registry's own write lock (held inside Abort/Register) serializes
// this against concurrent HTTP-driven target CRUD.
func reconciler(state *api.State) config.ReconcileFunc {
	return func(newCfg *models.AppConfig, delta config.Delta) {
		for _, t := range delta.Removed {
			state.Registry.Abort(t.ID)
		}

		for _, t := range delta.Changed {
			state.Registry.Abort(t.ID)
			state.StartSuper(t)
		}

		for _, t := range delta.Added {
			state.StartSuper(t)
		}

		state.SetConfig(newCfg)
	}
}

