// cmd/recondragon/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recondragon/internal/adapters/sink"
	"recondragon/internal/adapters/store"
	"recondragon/internal/core/domain"
	"recondragon/internal/core/ports"
	"recondragon/internal/core/usecases"
	"recondragon/internal/platform/config"
	"recondragon/internal/platform/logx"
	"recondragon/internal/platform/ui"

	// Import modules for auto-registration via init()
	_ "recondragon/internal/modules/harvester"
	_ "recondragon/internal/modules/httpxprobe"
	_ "recondragon/internal/modules/masscan"
	_ "recondragon/internal/modules/nmap"
	_ "recondragon/internal/modules/nuclei"
	_ "recondragon/internal/modules/shodan"
	_ "recondragon/internal/modules/subfinder"
)

var (
	// Rellenables con -ldflags en build
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes: 0 completed, 1 failed o error de ejecución, 2 error de
// configuración, 3 partial.
func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: configuration load failed: %v\n", err)
		return 2
	}

	if cfg.PrintVersion {
		fmt.Printf("recondragon %s (commit %s, built %s)\n", version, commit, date)
		return 0
	}

	job, err := cfg.BuildJob()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	if err := job.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Usage: recondragon -t <target> -m <modules>")
		fmt.Fprintln(os.Stderr, "Try: recondragon -h for help")
		return 2
	}

	logger := logx.NewWithLevel(parseLogLevel(cfg.LogLevel))

	logger.Info("recondragon starting",
		"version", version,
		"job_id", job.ID,
		"target", job.Target,
		"execute", job.Execute,
		"workers", cfg.Workers,
	)

	ctx, cancel := rootContextWithSignals(cfg.Timeout(), logger)
	defer cancel()

	jobStore, err := store.NewFileStore(cfg.StoreDir, logger)
	if err != nil {
		logger.Err(err, "phase", "store-init")
		return 2
	}
	defer jobStore.Close()

	artifactSink, err := sink.NewDirSink(cfg.OutputDir, logger)
	if err != nil {
		logger.Err(err, "phase", "sink-init")
		return 2
	}

	var observers []ports.Notifier
	var presenter *ui.Presenter
	if !cfg.Quiet {
		presenter = ui.NewPresenter()
		presenter.ShowHeader(job, cfg.Workers)
		observers = append(observers, presenter)
	}

	orch := usecases.NewOrchestrator(usecases.OrchestratorOptions{
		Store:      jobStore,
		Sink:       artifactSink,
		Observers:  observers,
		Logger:     logger,
		MaxWorkers: cfg.Workers,
		OutputDir:  cfg.OutputDir,
	})

	report, err := orch.Run(ctx, job)
	if err != nil {
		logger.Err(err, "phase", "run")
		return 1
	}

	if presenter != nil {
		presenter.ShowSummary(report)
	}

	switch report.Job.Status {
	case domain.JobStatusCompleted:
		return 0
	case domain.JobStatusPartial:
		return 3
	default:
		return 1
	}
}

// rootContextWithSignals arma el contexto raíz: timeout global opcional y
// cancelación por SIGINT/SIGTERM.
func rootContextWithSignals(timeout time.Duration, logger logx.Logger) (context.Context, context.CancelFunc) {
	ctx := context.Background()

	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Warn("signal received, cancelling job", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func parseLogLevel(lvl string) logx.Level {
	switch lvl {
	case "debug":
		return logx.LevelDebug
	case "warn":
		return logx.LevelWarn
	case "error":
		return logx.LevelError
	default:
		return logx.LevelInfo
	}
}
