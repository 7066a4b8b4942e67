// Package ui renders job progress in the terminal. El Presenter es un
// ports.Notifier más: consume las mismas transiciones que cualquier otro
// observer y nunca participa en la correctitud del job.
package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"recondragon/internal/core/domain"
	"recondragon/internal/core/ports"
)

// Símbolos de estado por módulo.
const (
	symbolSucceeded = "✓"
	symbolFailed    = "✗"
	symbolSkipped   = "↷"
	symbolRunning   = "▶"
	symbolRetry     = "↻"
)

// Presenter pinta las transiciones de job y módulo con pterm.
type Presenter struct {
	mu      sync.Mutex
	started map[string]time.Time // module -> start, para duraciones en vivo
}

// NewPresenter crea un presenter de terminal.
func NewPresenter() *Presenter {
	return &Presenter{
		started: make(map[string]time.Time),
	}
}

// Notify pinta una transición. Nunca retorna error: un render fallido no es
// asunto del Orchestrator.
func (p *Presenter) Notify(_ context.Context, event ports.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch event.Type {
	case ports.EventTypeJobTransition:
		p.renderJobTransition(event)
	case ports.EventTypeModuleTransition:
		p.renderModuleTransition(event)
	case ports.EventTypeModuleRetry:
		attempt, _ := event.Data.(int)
		pterm.Warning.Printfln("  %s %s retrying (attempt %d)", symbolRetry, pterm.Yellow(event.Module), attempt)
	}
	return nil
}

// Close no mantiene estado que liberar.
func (p *Presenter) Close() error {
	return nil
}

func (p *Presenter) renderJobTransition(event ports.Event) {
	switch event.To {
	case string(domain.JobStatusRunning):
		pterm.Info.Printfln("job %s running", pterm.Cyan(event.JobID))
	case string(domain.JobStatusCompleted):
		pterm.Success.Printfln("job %s completed", pterm.Cyan(event.JobID))
	case string(domain.JobStatusPartial):
		pterm.Warning.Printfln("job %s finished partial", pterm.Cyan(event.JobID))
	case string(domain.JobStatusFailed):
		pterm.Error.Printfln("job %s failed", pterm.Cyan(event.JobID))
	}
}

func (p *Presenter) renderModuleTransition(event ports.Event) {
	switch event.To {
	case string(domain.ModuleStatusRunning):
		p.started[event.Module] = event.Timestamp
		pterm.Printfln("  %s %s", symbolRunning, pterm.Cyan(event.Module))

	case string(domain.ModuleStatusSucceeded):
		line := fmt.Sprintf("  %s %s%s", pterm.Green(symbolSucceeded), event.Module, p.elapsed(event))
		if summary := summaryLine(event.Data); summary != "" {
			line += pterm.Gray("  " + summary)
		}
		pterm.Printfln("%s", line)

	case string(domain.ModuleStatusFailed):
		line := fmt.Sprintf("  %s %s%s", pterm.Red(symbolFailed), event.Module, p.elapsed(event))
		if detail, ok := event.Data.(string); ok && detail != "" {
			line += pterm.Gray("  " + detail)
		}
		pterm.Printfln("%s", line)

	case string(domain.ModuleStatusSkipped):
		line := fmt.Sprintf("  %s %s", pterm.Yellow(symbolSkipped), event.Module)
		if reason, ok := event.Data.(string); ok && reason != "" {
			line += pterm.Gray("  skipped: " + reason)
		}
		pterm.Printfln("%s", line)
	}
}

// elapsed formatea la duración desde el running observado para el módulo.
func (p *Presenter) elapsed(event ports.Event) string {
	start, ok := p.started[event.Module]
	if !ok {
		return ""
	}
	delete(p.started, event.Module)
	return pterm.Gray(fmt.Sprintf(" (%s)", event.Timestamp.Sub(start).Round(time.Millisecond)))
}

// summaryLine aplana un summary de módulo a un one-liner "k=v k=v".
func summaryLine(data any) string {
	summary, ok := data.(map[string]any)
	if !ok || len(summary) == 0 {
		return ""
	}

	parts := make([]string, 0, len(summary))
	for _, key := range []string{"hosts", "open_ports", "subdomains", "findings", "ports", "alive"} {
		if v, found := summary[key]; found {
			parts = append(parts, fmt.Sprintf("%s=%v", key, v))
		}
	}
	return strings.Join(parts, " ")
}

// ShowHeader pinta la cabecera del job antes de ejecutarlo.
func (p *Presenter) ShowHeader(job *domain.Job, workers int) {
	pterm.DefaultHeader.
		WithBackgroundStyle(pterm.NewStyle(pterm.BgCyan)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Println("ReconDragon - Module Orchestration")

	mode := "execute"
	if !job.Execute {
		mode = "dry-run"
	}

	info := fmt.Sprintf("Target: %s\n", pterm.Cyan(job.Target))
	info += fmt.Sprintf("Workspace: %s\n", job.Workspace)
	info += fmt.Sprintf("Mode: %s\n", pterm.Yellow(mode))
	info += fmt.Sprintf("Modules: %s\n", strings.Join(job.Modules, ", "))
	info += fmt.Sprintf("Workers: %d", workers)

	pterm.DefaultBox.
		WithTitle("Job Configuration").
		WithTitleTopCenter().
		WithBoxStyle(pterm.NewStyle(pterm.FgCyan)).
		Println(info)
	pterm.Println()
}

// ShowSummary pinta la tabla final con el desenlace de cada módulo.
func (p *Presenter) ShowSummary(report *domain.JobReport) {
	pterm.Println()
	pterm.DefaultSection.Println("Job Summary")

	rows := pterm.TableData{
		{"Module", "Status", "Attempts", "Duration", "Detail"},
	}
	for _, rec := range report.Records {
		rows = append(rows, []string{
			rec.Module,
			statusCell(rec),
			fmt.Sprintf("%d", rec.Attempts),
			rec.Duration().Round(time.Millisecond).String(),
			recordDetail(rec),
		})
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		pterm.Error.Println(err)
	}

	counts := report.CountByStatus()
	pterm.Printfln("\n%s succeeded, %s failed, %s skipped (job %s)",
		pterm.Green(fmt.Sprintf("%d", counts[domain.ModuleStatusSucceeded])),
		pterm.Red(fmt.Sprintf("%d", counts[domain.ModuleStatusFailed])),
		pterm.Yellow(fmt.Sprintf("%d", counts[domain.ModuleStatusSkipped])),
		string(report.Job.Status),
	)
}

func statusCell(rec *domain.ModuleExecutionRecord) string {
	switch rec.Status {
	case domain.ModuleStatusSucceeded:
		return pterm.Green(string(rec.Status))
	case domain.ModuleStatusFailed:
		return pterm.Red(string(rec.Status))
	case domain.ModuleStatusSkipped:
		return pterm.Yellow(string(rec.Status))
	default:
		return string(rec.Status)
	}
}

func recordDetail(rec *domain.ModuleExecutionRecord) string {
	switch rec.Status {
	case domain.ModuleStatusSkipped:
		return string(rec.SkipReason)
	case domain.ModuleStatusFailed:
		if len(rec.ErrorDetail) > 60 {
			return rec.ErrorDetail[:60] + "…"
		}
		return rec.ErrorDetail
	default:
		if rec.Summary != nil {
			return summaryLine(rec.Summary)
		}
		return ""
	}
}

// NoopNotifier descarta todos los eventos. Útil en tests y en modo quiet.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, ports.Event) error { return nil }
func (NoopNotifier) Close() error                              { return nil }
