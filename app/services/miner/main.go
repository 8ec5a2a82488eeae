package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/blockminer/app/services/miner/handlers"
	"github.com/ardanlabs/blockminer/foundation/blockchain/genesis"
	"github.com/ardanlabs/blockminer/foundation/blockchain/mempool"
	"github.com/ardanlabs/blockminer/foundation/blockchain/state"
	"github.com/ardanlabs/blockminer/foundation/blockchain/storage"
	"github.com/ardanlabs/blockminer/foundation/events"
	"github.com/ardanlabs/blockminer/foundation/logger"
	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("MINER")
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

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			Enabled         bool          `conf:"default:false"`
			Linger          bool          `conf:"default:false"`
		}
		Miner struct {
			MempoolFolder string `conf:"default:mempool"`
			GenesisFile   string
			OutputFile    string        `conf:"default:output.txt"`
			Workers       int           `conf:"default:0"`
			NonceEnd      uint64        `conf:"default:4294967296"`
			Timeout       time.Duration `conf:"default:0s"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "MINER"
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
	// Blockchain Support

	gen := genesis.Default()
	if cfg.Miner.GenesisFile != "" {
		gen, err = genesis.Load(cfg.Miner.GenesisFile)
		if err != nil {
			return fmt.Errorf("unable to load genesis: %w", err)
		}
	}
	log.Infow("startup", "status", "genesis", "difficulty", gen.Difficulty, "maxBlockSize", gen.MaxBlockSize, "reward", gen.MiningReward)

	mp, err := mempool.New(cfg.Miner.MempoolFolder)
	if err != nil {
		return fmt.Errorf("unable to open mempool: %w", err)
	}
	log.Infow("startup", "status", "mempool", "folder", cfg.Miner.MempoolFolder, "records", mp.Count())

	disk, err := storage.NewDisk(cfg.Miner.OutputFile)
	if err != nil {
		return fmt.Errorf("unable to prepare output file: %w", err)
	}

	// The blockchain packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	st, err := state.New(state.Config{
		Genesis:   gen,
		Source:    mp,
		Workers:   cfg.Miner.Workers,
		NonceEnd:  cfg.Miner.NonceEnd,
		Timeout:   cfg.Miner.Timeout,
		EvHandler: ev,
	})
	if err != nil {
		return err
	}

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	var public *http.Server
	if cfg.Web.Enabled {
		log.Infow("startup", "status", "initializing V1 public API support")

		public = &http.Server{
			Addr: cfg.Web.PublicHost,
			Handler: handlers.PublicMux(handlers.MuxConfig{
				Log:   log,
				State: st,
				Evts:  evts,
			}),
			ReadTimeout:  cfg.Web.ReadTimeout,
			WriteTimeout: cfg.Web.WriteTimeout,
			IdleTimeout:  cfg.Web.IdleTimeout,
			ErrorLog:     zap.NewStdLog(log.Desugar()),
		}

		go func() {
			log.Infow("startup", "status", "public api router started", "host", public.Addr)
			serverErrors <- public.ListenAndServe()
		}()
	}

	// =========================================================================
	// Mining

	// A signal stops the search, the workers are joined before MineNewBlock
	// returns.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case sig := <-shutdown:
			log.Infow("shutdown", "status", "mining cancelled", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	mineErr := mine(ctx, log, st, disk)

	if public == nil {
		return mineErr
	}

	// =========================================================================
	// Shutdown

	if cfg.Web.Linger && ctx.Err() == nil {
		log.Infow("startup", "status", "mining finished, serving until shutdown")

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
		}
	}

	log.Infow("shutdown", "status", "shutdown started")
	evts.Shutdown()

	sctx, scancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
	defer scancel()

	if err := public.Shutdown(sctx); err != nil {
		public.Close()
		return fmt.Errorf("could not stop public service gracefully: %w", err)
	}

	return mineErr
}

// mine runs the pipeline once and writes the result. The two terminal
// outcomes are logged distinctly and produce no output file.
func mine(ctx context.Context, log *zap.SugaredLogger, st *state.State, disk *storage.Disk) error {
	result, err := st.MineNewBlock(ctx)
	switch {
	case errors.Is(err, state.ErrNotMined):
		log.Infow("mining", "status", "failed to mine a valid block", "reason", err)
		return err

	case errors.Is(err, state.ErrInvalidBlock):
		log.Errorw("mining", "status", "mined block is not valid", "ERROR", err)
		return err

	case err != nil:
		return fmt.Errorf("mining: %w", err)
	}

	if err := disk.Write(result); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}

	log.Infow("mining", "status", "block mined", "hash", result.Hash, "nonce", result.Nonce, "txs", len(result.TxIDs), "output", disk.Path())

	return nil
}
