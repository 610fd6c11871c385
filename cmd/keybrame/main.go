// keybrame - keyboard driven stream overlay
// Global key presses select the image shown by an overlay page.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"keybrame/internal/config"
	"keybrame/internal/network"
	"keybrame/internal/osutils"
	"keybrame/internal/store"
)

var (
	version  = "0.3.0"
	cfgPath  = flag.String("config", "", "Path to the options file (default: per-user config dir)")
	showVer  = flag.Bool("version", false, "Show version")
	listBind = flag.Bool("list", false, "List configured keybindings")
	replay   = flag.String("replay", "", "Feed JSON-lines input events from FILE (- for stdin)")
	tailAddr = flag.String("tail", "", "Print events from a running overlay at ADDR")
	noTray   = flag.Bool("no-tray", false, "Run without the system tray icon")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("keybrame version %s\n", version)
		return
	}

	if *tailAddr != "" {
		setupLogging("info")
		if err := runTail(*tailAddr); err != nil {
			slog.Error("[main] tail failed", "error", err)
			os.Exit(1)
		}
		return
	}

	cfgMgr, err := config.NewManager(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize config: %v\n", err)
		os.Exit(1)
	}
	loadErr := cfgMgr.Load()
	setupLogging(cfgMgr.Get().LogLevel)
	if loadErr != nil {
		slog.Warn("[main] failed to load options, using defaults", "path", cfgMgr.Path(), "error", loadErr)
	}

	if *listBind {
		if err := listBindings(cfgMgr); err != nil {
			slog.Error("[main] failed to list keybindings", "error", err)
			os.Exit(1)
		}
		return
	}

	restart, err := runService(cfgMgr)
	if err != nil {
		slog.Error("[main] keybrame stopped", "error", err)
		os.Exit(1)
	}
	if restart {
		pid, err := osutils.Relaunch(os.Args[1:])
		if err != nil {
			slog.Error("[main] restart failed", "error", err)
			os.Exit(1)
		}
		slog.Info("[main] restarted", "pid", pid)
	}
}

func setupLogging(level string) {
	lvl, err := config.ParseLevel(level)
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
	if err != nil {
		slog.Warn("[main] invalid log level", "error", err)
	}
}

func listBindings(cfgMgr *config.Manager) error {
	ctx := context.Background()
	st, err := store.Open(ctx, cfgMgr.DatabasePath())
	if err != nil {
		return err
	}
	defer st.Close()

	settings, err := st.Settings(ctx)
	if err != nil {
		return err
	}
	bindings, err := st.ListBindings(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Database: %s\n", st.Path())
	fmt.Printf("Port: %d  Shutdown: %s  Default image: %s\n",
		settings.Port, joinKeys(settings.ShutdownCombo), orNone(settings.DefaultImage))
	fmt.Println("Keybindings:")
	fmt.Println("------------")
	if len(bindings) == 0 {
		fmt.Println("(none)")
	}
	for _, b := range bindings {
		state := "on"
		if !b.Enabled {
			state = "off"
		}
		fmt.Printf("#%d [%s] %-6s %-20s -> %s", b.ID, state, b.Kind, b.Combo(), b.Image)
		if b.Description != "" {
			fmt.Printf("  (%s)", b.Description)
		}
		fmt.Printf("  priority %d\n", b.Priority)
		if t := b.TransitionIn; t != nil {
			fmt.Printf("    in:  %s %s\n", t.Image, durationText(t.Duration))
		}
		if t := b.TransitionOut; t != nil {
			fmt.Printf("    out: %s %s\n", t.Image, durationText(t.Duration))
		}
	}
	return nil
}

func runTail(addr string) error {
	client, err := network.NewWSClient(addr)
	if err != nil {
		return err
	}
	client.OnEvent = func(msg network.Message) {
		fmt.Printf("%s %s\n", time.Now().Format("15:04:05.000"), network.Format(msg))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	slog.Info("[main] following overlay events", "url", client.URL())
	if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(placeholder)"
	}
	return s
}

func durationText(ms int) string {
	if ms <= 0 {
		return "(auto)"
	}
	return fmt.Sprintf("(%dms)", ms)
}

func joinKeys[K ~string](keys []K) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, "+")
}
