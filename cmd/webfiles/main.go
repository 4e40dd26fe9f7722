package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/brettbedarf/webfiles/adapters"
	"github.com/brettbedarf/webfiles/config"
	"github.com/brettbedarf/webfiles/internal/util"
	"github.com/brettbedarf/webfiles/server"
)

func main() {
	// Parse command line arguments
	var (
		configPath  string
		verbose     int
		baseDir     string
		addr        string
		backend     string
		metricsAddr string
	)
	flag.StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")
	flag.StringVar(&configPath, "c", "", "--config (shorthand)")
	flag.IntVar(&verbose, "verbose", config.InfoVerbose, "Log verbosity level between 1 (error) and 5 (trace). Default is 3 (info).")
	flag.IntVar(&verbose, "v", config.InfoVerbose, "--verbose (shorthand)")
	flag.StringVar(&baseDir, "base-dir", "", "Directory all file operations are confined to")
	flag.StringVar(&addr, "addr", "", "HTTP listen address")
	flag.StringVar(&backend, "backend", "", "Storage backend: os or memory")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "Prometheus listen address; empty disables metrics")
	flag.Parse()

	// Precedence: defaults < file < env < flags
	cfg := config.NewDefaultConfig()
	if configPath != "" {
		override, err := config.LoadConfigOverrideFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config %s: %v\n", configPath, err)
			os.Exit(1)
		}
		cfg.Merge(override)
	}
	cfg.Merge(config.LoadConfigOverrideEnv())
	cfg.Merge(flagOverride(verbose, baseDir, addr, backend, metricsAddr))

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	util.InitializeLogger(cfg.LogLvl, cfg.LogFormat)
	logger := util.GetLogger("main")
	logger.Info().
		Str("config", configPath).
		Str("base_dir", cfg.BaseDir).
		Str("addr", cfg.ListenAddr).
		Str("backend", cfg.Backend).
		Msg("WebFiles server initializing")

	app, err := server.NewApp(cfg, adapters.NewDefaultRegistry())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize file service")
	}
	if err := app.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start file service")
	}

	// Setup signal handling for graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	logger.Info().Str("addr", app.Server.Addr()).Msg("File service ready")

	// Wait for termination signal or a dead listener
	exitCode := 0
	select {
	case sig := <-signalChan:
		logger.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")
	case err := <-app.Server.Errors():
		logger.Error().Err(err).Msg("Listener stopped unexpectedly, shutting down")
		exitCode = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Shutdown did not complete cleanly")
		exitCode = 1
	} else {
		logger.Info().Msg("File service stopped cleanly")
	}
	if exitCode != 0 {
		cancel()
		os.Exit(exitCode)
	}
}

// flagOverride builds an override holding only the flags set explicitly on
// the command line.
func flagOverride(verbose int, baseDir, addr, backend, metricsAddr string) *config.ConfigOverride {
	override := &config.ConfigOverride{}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "verbose", "v":
			override.LogLvl = util.Pointer(verbose)
		case "base-dir":
			override.BaseDir = util.Pointer(baseDir)
		case "addr":
			override.ListenAddr = util.Pointer(addr)
		case "backend":
			override.Backend = util.Pointer(backend)
		case "metrics-addr":
			override.MetricsAddr = util.Pointer(metricsAddr)
		}
	})
	return override
}
