package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/pflag"

	"vaultgraph/pkg/analysis"
	"vaultgraph/pkg/config"
	"vaultgraph/pkg/cycles"
	"vaultgraph/pkg/engine"
	"vaultgraph/pkg/logging"
	"vaultgraph/pkg/output"
	"vaultgraph/pkg/pubsub"
	"vaultgraph/pkg/watcher"
	"vaultgraph/pkg/web"
)

func main() {
	flags := pflag.NewFlagSet("vaultgraph", pflag.ExitOnError)
	flags.String("vault", ".", "Path to the markdown vault root")
	flags.Bool("web", false, "Start web server instead of printing to console")
	flags.Int("port", 8080, "Port for web server (only used with --web)")
	flags.Bool("watch", false, "Keep running and sync the graph with file changes")
	flags.Bool("open", true, "Open browser when starting web server")
	flags.Int("max-files", 300, "Maximum number of markdown files allowed in the vault")
	flags.Int("debounce-ms", 200, "Quiet period before flushing file change events")
	flags.String("verbosity", "", "Log level: debug, info, warn, or error")
	flags.CountP("verbose", "v", "Increase log verbosity (repeatable)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	configureLogging(cfg)

	root, err := filepath.Abs(cfg.Vault)
	if err != nil {
		logging.Fatal("invalid vault path", "path", cfg.Vault, "error", err)
	}

	if cfg.WebMode {
		runWebMode(root, cfg)
		return
	}
	runCLIMode(root, cfg)
}

func configureLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.Verbosity {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	case "":
		if cfg.VerboseCnt > 0 {
			level = slog.LevelDebug
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown verbosity %q, using info\n", cfg.Verbosity)
	}
	logging.SetLevel(level)
}

func runCLIMode(root string, cfg *config.Config) {
	eng := engine.New(root, nil)
	if err := eng.Bootstrap(cfg.MaxFiles); err != nil {
		logging.Fatal("failed to load vault", "root", root, "error", err)
	}

	g := eng.Snapshot()
	output.PrintVaultReport(root, analysis.BuildReport(g), cycles.FindLinkCycles(g))

	if cfg.Watch {
		ctx := context.Background()
		if err := startWatching(ctx, eng, root, cfg); err != nil {
			logging.Fatal("failed to start watcher", "error", err)
		}
		select {}
	}
}

func runWebMode(root string, cfg *config.Config) {
	publisher := pubsub.NewSSEPublisher()
	eng := engine.New(root, publisher)
	server := web.NewServer(eng, publisher)

	go func() {
		if err := server.Start(cfg.Port); err != nil {
			logging.Fatal("failed to start server", "error", err)
		}
	}()

	url := fmt.Sprintf("http://localhost:%d", cfg.Port)
	logging.Info("starting web server", "url", url)

	// Load the vault in the background so the UI comes up immediately.
	go func() {
		if err := eng.Bootstrap(cfg.MaxFiles); err != nil {
			logging.Error("failed to load vault", "root", root, "error", err)
			return
		}
		if cfg.Watch {
			if err := startWatching(context.Background(), eng, root, cfg); err != nil {
				logging.Error("failed to start watcher", "error", err)
			}
		}
	}()

	if cfg.OpenBrowser {
		time.Sleep(500 * time.Millisecond)
		openBrowser(url)
	}

	// Server runs in a goroutine; block forever.
	select {}
}

func startWatching(ctx context.Context, eng *engine.Engine, root string, cfg *config.Config) error {
	vw, err := watcher.NewVaultWatcher(root)
	if err != nil {
		return err
	}
	if err := vw.Start(ctx); err != nil {
		return err
	}

	quiet := time.Duration(cfg.DebounceMs) * time.Millisecond
	debouncer := watcher.NewDebouncer(vw.Events(), quiet, 5*quiet)
	debouncer.Start(ctx)

	go eng.Run(ctx, debouncer.Output())
	return nil
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Warn("cannot open browser on platform", "platform", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "error", err)
	}
}
