package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robfig/cron/v3"

	"civicline/internal/config"
	"civicline/internal/link"
	appLog "civicline/internal/log"
	"civicline/internal/source"
	"civicline/internal/timeline"
	"civicline/internal/tui"
	"civicline/internal/web"
)

type flagConfig struct {
	configPath string
	dataDir    string
	mode       string
	listen     string
	useTUI     bool
	once       bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI overrides.
	if flags.dataDir != "" {
		conf.DataDir = flags.dataDir
	}
	if flags.mode != "" {
		conf.Mode = string(timeline.ParseMode(flags.mode))
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevel(appLog.Level(conf.LogLevel))

	appLog.Info("civicline starting",
		"mode", conf.Mode,
		"data_dir", conf.DataDir,
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"tui", flags.useTUI,
		"once", flags.once,
	)

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("invalid timezone, using local", err, "timezone", conf.Timezone)
		loc = time.Local
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	fetcher := source.NewFetcher(conf.DataDir, "")

	switch {
	case flags.once:
		runOnce(ctx, conf, fetcher, loc)
	case flags.useTUI:
		runTUI(ctx, conf, fetcher, loc)
	default:
		runServe(ctx, conf, fetcher, loc)
	}

	appLog.Info("civicline exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig
	flag.StringVar(&cfg.configPath, "config", "./civicline.yaml", "Path to config file")
	flag.StringVar(&cfg.dataDir, "data", "", "Data directory (overrides config if set)")
	flag.StringVar(&cfg.mode, "mode", "", "Timeline mode: past, upcoming or all (overrides config)")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.useTUI, "tui", false, "Browse the timeline in the terminal instead of serving HTTP")
	flag.BoolVar(&cfg.once, "once", false, "Assemble the timeline once, print it and exit")
	flag.Parse()
	return cfg
}

// newAssembler builds the assembler from config.
func newAssembler(conf *config.Config, loc *time.Location) timeline.Assembler {
	return timeline.Assembler{
		Mode: timeline.ParseMode(conf.Mode),
		Linker: &link.Linker{
			Threshold:    conf.Link.Threshold,
			ContainScore: conf.Link.ContainScore,
		},
		Loc: loc,
		Expand: timeline.ExpandOptions{
			HorizonDays: conf.Expand.HorizonDays,
			MaxPerEvent: conf.Expand.MaxPerEvent,
		},
	}
}

// runOnce assembles the timeline once and prints a plain-text digest.
func runOnce(ctx context.Context, conf *config.Config, fetcher *source.Fetcher, loc *time.Location) {
	set := fetcher.FetchTables(ctx, conf.Tables)
	if len(set.Events) == 0 {
		fmt.Println("No events found. Add data to events.csv.")
		return
	}

	assembler := newAssembler(conf, loc)
	units := assembler.Assemble(set)
	for i, u := range units {
		fmt.Printf("%3d. %s | %s %s | %s\n", i+1, u.Title, u.DateText, u.TimeText, u.Location)
		fmt.Printf("     %s: %s\n", u.GroupName, u.GroupSummary)
		if len(u.Actions) == 0 {
			fmt.Printf("     %s\n", u.ActionPlaceholder)
		}
		for _, a := range u.Actions {
			fmt.Printf("     → %s\n", a.Label)
		}
	}
}

// runTUI assembles the timeline and hands it to the terminal viewer.
func runTUI(ctx context.Context, conf *config.Config, fetcher *source.Fetcher, loc *time.Location) {
	set := fetcher.FetchTables(ctx, conf.Tables)
	assembler := newAssembler(conf, loc)
	units := assembler.Assemble(set)

	loader := &timeline.Loader{
		Fetcher:  fetcher,
		RecapDir: conf.RecapDir,
		Media:    set.Media,
		Linker:   assembler.Linker,
	}

	model := tui.New(ctx, units, loader, assembler.Mode, tui.Options{
		VisibleThreshold: conf.View.VisibleThreshold,
		Cooldown:         time.Duration(conf.View.CooldownMillis) * time.Millisecond,
		MinNavWidth:      conf.View.MinNavWidth,
		ReducedMotion:    conf.View.ReducedMotion,
	})

	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		appLog.Error("viewer exited with error", err)
		os.Exit(1)
	}
}

// runServe starts the HTTP server plus the cron-driven table refresh,
// and blocks until the context is canceled.
func runServe(ctx context.Context, conf *config.Config, fetcher *source.Fetcher, loc *time.Location) {
	// Warm the table caches before serving.
	fetcher.FetchTables(ctx, conf.Tables)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(conf.RefreshCron, func() {
		appLog.Debug("refreshing source tables", "refresh", conf.RefreshCron)
		fetcher.FetchTables(ctx, conf.Tables)
	}); err != nil {
		appLog.Error("invalid refresh schedule, periodic refresh disabled", err, "refresh", conf.RefreshCron)
	} else {
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := web.NewServer(conf, fetcher, loc)
	httpServer := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}
}
