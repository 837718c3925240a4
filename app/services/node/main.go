package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"
	"github.com/shardlab/powshard/app/services/node/handlers"
	"github.com/shardlab/powshard/business/core/network"
	"github.com/shardlab/powshard/business/web/metrics"
	"github.com/shardlab/powshard/foundation/blockchain/genesis"
	"github.com/shardlab/powshard/foundation/events"
	"github.com/shardlab/powshard/foundation/logger"
	"github.com/shardlab/powshard/foundation/wallets"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// Values in a .env file are loaded into the environment first so they
	// can be overridden by the real environment and command line flags.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:120s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
		}
		State struct {
			GenesisPath  string        `conf:"help:genesis file or empty for the built in defaults"`
			Miners       int           `conf:"default:0,help:miners per round or 0 for the genesis value"`
			RoundTimeout time.Duration `conf:"default:0s,help:round timeout or 0 for the genesis value"`
		}
		Wallets struct {
			Folder string `conf:"help:folder of PEM keys or empty to generate keys"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "sharded proof of work ledger simulator",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Genesis and Wallets

	gen := genesis.Default()
	if cfg.State.GenesisPath != "" {
		if gen, err = genesis.Load(cfg.State.GenesisPath); err != nil {
			return fmt.Errorf("unable to load genesis: %w", err)
		}
	}
	if cfg.State.Miners > 0 {
		gen.Miners = cfg.State.Miners
	}
	if cfg.State.RoundTimeout > 0 {
		gen.RoundTimeout = cfg.State.RoundTimeout
	}

	var ws *wallets.Wallets
	switch cfg.Wallets.Folder {
	case "":
		if ws, err = wallets.Generate(gen.Accounts); err != nil {
			return fmt.Errorf("unable to generate wallets: %w", err)
		}

	default:
		if ws, err = wallets.Load(cfg.Wallets.Folder); err != nil {
			return fmt.Errorf("unable to load wallets: %w", err)
		}

		gen.Accounts = gen.Accounts[:0]
		for _, id := range ws.AccountIDs() {
			gen.Accounts = append(gen.Accounts, string(id))
		}
	}

	// Logging the accounts for documentation in the logs.
	for _, id := range ws.AccountIDs() {
		log.Infow("startup", "status", "wallets", "account", id)
	}

	// =========================================================================
	// Blockchain Support

	// The blockchain packages accept a function of this signature to allow the
	// application to log. Events marked for viewers are also sent to any
	// websocket client that is connected into the system through the events
	// package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")

		if evts.Send(s) && strings.HasPrefix(s, events.Prefix+" block:") {
			metrics.AddBlock()
		}
	}

	// The network owns the serial chain and the shards, each with a worker
	// mining in the background.
	net, err := network.New(network.Config{
		Genesis:   gen,
		Wallets:   ws,
		EvHandler: ev,
	})
	if err != nil {
		return err
	}
	defer net.Shutdown()

	log.Infow("startup", "status", "network started", "shards", net.NumShards(), "difficulty", gen.Difficulty, "miners", net.AllStats()[0].Miners)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, net)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		Network:  net,
		Evts:     evts,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
