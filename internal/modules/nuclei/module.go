// Package nuclei implements template-based vulnerability scanning on top of
// Project Discovery's nuclei CLI tool.
package nuclei

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"recondragon/internal/core/domain"
	"recondragon/internal/modules/common"
	"recondragon/internal/platform/logx"
)

const (
	moduleName    = "nuclei"
	moduleVersion = "1.0.0"

	defaultSeverity = "medium,high,critical"
)

// Module ejecuta nuclei contra el target y agrega sus findings JSONL.
type Module struct {
	*common.BaseCLIModule

	severity  string
	templates string
	rateLimit int
}

// New crea el módulo con su configuración efectiva.
func New(logger logx.Logger, severity, templates string, rateLimit int) *Module {
	if severity == "" {
		severity = defaultSeverity
	}
	return &Module{
		BaseCLIModule: common.NewBaseCLIModule(logger.With("module", moduleName), "nuclei"),
		severity:      severity,
		templates:     templates,
		rateLimit:     rateLimit,
	}
}

// Name retorna el nombre del módulo.
func (m *Module) Name() string { return moduleName }

// Version retorna la versión del módulo.
func (m *Module) Version() string { return moduleVersion }

// Invoke ejecuta el escaneo de vulnerabilidades (o su proyección en dry-run).
func (m *Module) Invoke(ctx context.Context, inv domain.Invocation) (*domain.Result, error) {
	argv := m.argv(inv.Target)

	if !inv.Execute {
		return domain.NewPlannedResult(moduleName, moduleVersion, inv.Target, argv, "vulnerability scan of "+inv.Target), nil
	}

	res := domain.NewResult(moduleName, moduleVersion, inv.Target)

	if err := common.EnsureOutputDir(inv.OutputDir); err != nil {
		res.SetError(err.Error())
		return res.Finish(false), err
	}

	handler := newFindingsHandler(m.Logger())
	stderr, err := m.ExecuteCLI(ctx, argv[1:], handler)
	if err != nil {
		res.SetError(err.Error())
		if stderr != "" {
			res.Summary["stderr"] = truncate(stderr, 2048)
		}
		return res.Finish(false), err
	}

	res.Summary["findings"] = handler.total
	res.Summary["severity_counts"] = handler.bySeverity

	if handler.total > 0 {
		artifact := filepath.Join(inv.OutputDir, "findings.jsonl")
		if err := os.WriteFile(artifact, []byte(strings.Join(handler.lines, "\n")+"\n"), 0o644); err != nil {
			m.Logger().Warn("failed to persist findings", "error", err.Error())
		} else {
			res.AddArtifact(artifact)
			res.Raw = artifact
		}
	}

	return res.Finish(true), nil
}

// argv es la línea de comando completa, también usada por la proyección.
func (m *Module) argv(target string) []string {
	argv := []string{
		"nuclei",
		"-u", target,
		"-severity", m.severity,
		"-jsonl",
		"-silent",
	}
	if m.templates != "" {
		argv = append(argv, "-t", m.templates)
	}
	if m.rateLimit > 0 {
		argv = append(argv, "-rate-limit", strconv.Itoa(m.rateLimit))
	}
	return argv
}

// finding es el subconjunto relevante de una línea JSONL de nuclei.
type finding struct {
	TemplateID string `json:"template-id"`
	Info       struct {
		Severity string `json:"severity"`
	} `json:"info"`
}

// findingsHandler agrega findings del stream JSONL de nuclei.
type findingsHandler struct {
	logger     logx.Logger
	lines      []string
	total      int
	bySeverity map[string]int
}

func newFindingsHandler(logger logx.Logger) *findingsHandler {
	return &findingsHandler{
		logger:     logger,
		bySeverity: make(map[string]int),
	}
}

// ProcessLine implementa common.OutputHandler.
func (h *findingsHandler) ProcessLine(line []byte) error {
	trimmed := strings.TrimSpace(string(line))
	if trimmed == "" || !strings.HasPrefix(trimmed, "{") {
		return nil
	}

	var f finding
	if err := json.Unmarshal([]byte(trimmed), &f); err != nil {
		h.logger.Debug("skipping unparseable finding line", "error", err.Error())
		return nil
	}

	h.lines = append(h.lines, trimmed)
	h.total++
	sev := strings.ToLower(f.Info.Severity)
	if sev == "" {
		sev = "unknown"
	}
	h.bySeverity[sev]++
	return nil
}

// Finalize implementa common.OutputHandler.
func (h *findingsHandler) Finalize() error {
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
