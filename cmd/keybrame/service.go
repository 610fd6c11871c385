package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"keybrame/internal/api"
	"keybrame/internal/autostart"
	"keybrame/internal/config"
	"keybrame/internal/dialog"
	"keybrame/internal/event"
	"keybrame/internal/hotkey"
	"keybrame/internal/input"
	"keybrame/internal/media"
	"keybrame/internal/notify"
	"keybrame/internal/osutils"
	"keybrame/internal/singleinstance"
	"keybrame/internal/store"
	"keybrame/internal/tray"
	"keybrame/internal/ui"
	"keybrame/internal/watch"
)

const (
	shutdownTimeout = 5 * time.Second

	// comboShutdownTimeout bounds the flush after the shutdown combo
	comboShutdownTimeout = 500 * time.Millisecond
)

// shutdownBudget is how long in-flight requests get before connections
// are dropped
func shutdownBudget(combo bool) time.Duration {
	if combo {
		return comboShutdownTimeout
	}
	return shutdownTimeout
}

// runService runs the overlay until it is told to stop. The result reports
// that the stop came from POST /api/server/restart.
func runService(cfgMgr *config.Manager) (bool, error) {
	opts := cfgMgr.Get()
	slog.Info("[main] keybrame starting", "version", version, "options", cfgMgr.Path())

	lock, err := singleinstance.TryLock(cfgMgr.DataPath(), "keybrame")
	if errors.Is(err, singleinstance.ErrAlreadyRunning) {
		fmt.Fprintln(os.Stderr, "keybrame is already running for this data directory.")
		os.Exit(1)
	}
	if err != nil {
		return false, err
	}
	defer lock.Release()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(ctx, cfgMgr.DatabasePath())
	if err != nil {
		return false, err
	}
	defer st.Close()

	lib, err := media.NewLibrary(cfgMgr.AssetsPath())
	if err != nil {
		return false, err
	}

	notifier := notify.New(opts.Notifications)
	cfgMgr.RegisterChangeCallback(func(o config.Options) {
		notifier.SetEnabled(o.Notifications)
	})

	provider := config.NewProvider(st, lib.Duration)
	snap, err := provider.Reload(ctx)
	if err != nil {
		return false, fmt.Errorf("initial load: %w", err)
	}

	var comboExit, restartRequested atomic.Bool
	bus := event.NewBus()
	engine := hotkey.NewEngine(snap, bus, hotkey.WithTerminate(func() {
		slog.Info("[main] shutdown combo pressed")
		comboExit.Store(true)
		cancel()
	}))
	provider.OnReload(engine.Reload)

	addr := serverAddr(opts, provider.Settings())
	url := overlayURL(addr)

	server := api.NewServer(api.Deps{
		Store:      st,
		Provider:   provider,
		Engine:     engine,
		Library:    lib,
		Bus:        bus,
		Token:      opts.APIToken,
		Version:    version,
		Index:      ui.Handler("keybrame"),
		Admin:      ui.AdminHandler("keybrame"),
		OnShutdown: cancel,
		OnRestart: func() {
			restartRequested.Store(true)
			cancel()
		},
	})
	if !osutils.IsLoopback(opts.BindAddress) {
		go func() {
			_, port, _ := net.SplitHostPort(addr)
			n, _ := strconv.Atoi(port)
			if err := osutils.EnsureFirewallRule(n); err != nil {
				slog.Warn("[main] firewall rule", "error", err)
			}
		}()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return false, fmt.Errorf("listen on %s: %w", addr, err)
	}
	go func() {
		if err := server.Serve(ctx, ln); err != nil {
			slog.Error("[main] server error", "error", err)
			notifier.Error(err.Error())
			cancel()
		}
	}()

	reload := func(reason string) {
		snap, err := provider.Reload(ctx)
		if err != nil {
			slog.Warn("[main] reload failed, keeping previous bindings", "reason", reason, "error", err)
			notifier.ReloadFailed(err)
			return
		}
		notifier.Reloaded(len(snap.Bindings()))
	}

	if opts.WatchAssets {
		w, err := watch.New(lib.Dir(), watch.DefaultDebounce, func(files []string) {
			slog.Info("[main] assets changed", "files", files)
			reload("assets changed")
		})
		if err != nil {
			slog.Warn("[main] assets watcher disabled", "error", err)
		} else {
			defer w.Close()
			go w.Run(ctx)
		}
	}

	if *replay != "" {
		r, err := startReplay(*replay, openReplay, engine.HandleRaw)
		if err != nil {
			return false, err
		}
		defer r.Stop()
	}

	if opts.OpenBrowser {
		ui.OpenBrowser(url)
	}

	slog.Info("[main] overlay ready", "url", url, "admin", url+"admin", "bindings", len(provider.Snapshot().Bindings()))

	if opts.Tray && !*noTray {
		runTray(ctx, cancel, url, cfgMgr, lib, bus, engine, notifier, reload)
	} else {
		notifier.Started(url)
		<-ctx.Done()
	}

	slog.Info("[main] shutting down", "combo", comboExit.Load(), "restart", restartRequested.Load())
	engine.Stop()
	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownBudget(comboExit.Load()))
	defer done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("[main] server shutdown incomplete, closing connections", "error", err)
		server.Close()
	}
	return restartRequested.Load(), nil
}

// runTray blocks in the tray loop until ctx is cancelled or Quit is chosen
func runTray(ctx context.Context, cancel context.CancelFunc, url string, cfgMgr *config.Manager,
	lib *media.Library, bus *event.Bus, engine *hotkey.Engine, notifier *notify.Notifier, reload func(string)) {

	menu := tray.NewMenu(url, autostart.IsEnabled(), tray.Callbacks{
		OnOpen:   func() { ui.OpenBrowser(url) },
		OnReload: func() { reload("tray") },
		OnImport: func() { importImages(lib) },
		OnAutostart: func(on bool) error {
			return autostart.Set(on, "-config", cfgMgr.Path())
		},
		OnQuit: cancel,
	})

	events, unsubscribe := bus.Subscribe(event.DefaultBuffer)
	defer unsubscribe()
	go func() {
		for ev := range events {
			if text, ok := statusText(ev); ok {
				menu.SetStatus(text)
			}
		}
	}()

	go func() {
		<-ctx.Done()
		menu.Stop()
	}()

	menu.Run(func() {
		menu.SetStatus("Showing " + engine.CurrentImage())
		notifier.Started(url)
	})
	cancel()
}

// importImages copies picked files into the assets directory. The watcher
// picks them up, so no explicit reload is needed.
func importImages(lib *media.Library) {
	paths, err := dialog.PickImages()
	if err != nil {
		slog.Warn("[main] image picker failed", "error", err)
		dialog.ShowError("keybrame", err.Error())
		return
	}
	if len(paths) == 0 {
		return
	}

	var imported []string
	failed := make(map[string]error)
	for _, p := range paths {
		img, err := lib.Import(p)
		if err != nil {
			slog.Warn("[main] import failed", "file", p, "error", err)
			failed[p] = err
			continue
		}
		imported = append(imported, img.Path)
	}
	dialog.ShowInfo("keybrame", dialog.ImportResult(imported, failed))
}

// openReplay opens a replay script; "-" reads stdin, which is never closed
func openReplay(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	return f, nil
}

// startReplay feeds recorded events from path into handle. The input is
// closed once the replay ends.
func startReplay(path string, open func(string) (io.ReadCloser, error), handle func(input.RawEvent)) (*input.Replay, error) {
	rc, err := open(path)
	if err != nil {
		return nil, err
	}
	rp := input.NewReplay(rc)
	if err := rp.Start(handle); err != nil {
		rc.Close()
		return nil, err
	}
	go func() {
		if err := rp.Wait(); err == nil {
			slog.Info("[main] replay finished", "file", path)
		}
		if err := rc.Close(); err != nil {
			slog.Debug("[main] close replay input", "file", path, "error", err)
		}
	}()
	return rp, nil
}

// serverAddr picks the listen address. A zero port in the options file
// defers to the port stored with the bindings.
func serverAddr(opts config.Options, settings store.Settings) string {
	port := opts.Port
	if port == 0 {
		port = settings.Port
	}
	if port == 0 {
		port = store.DefaultPort
	}
	return net.JoinHostPort(opts.BindAddress, strconv.Itoa(port))
}

// overlayURL is the page address for a listen address
func overlayURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr + "/"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}

// statusText is the tray status line for an overlay event
func statusText(ev event.Event) (string, bool) {
	switch p := ev.Payload.(type) {
	case event.ImagePayload:
		return "Showing " + p.Image, true
	case event.TransitionPayload:
		return "Showing " + p.FinalImage, true
	}
	return "", false
}
