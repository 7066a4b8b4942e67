// Package subfinder implements passive subdomain discovery on top of Project
// Discovery's subfinder CLI tool.
package subfinder

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"recondragon/internal/core/domain"
	"recondragon/internal/modules/common"
	"recondragon/internal/platform/logx"
	"recondragon/internal/platform/validator"
)

const (
	moduleName    = "subfinder"
	moduleVersion = "1.0.0"

	defaultThreads = 10
)

// Module ejecuta subfinder contra el dominio objetivo. Solo consulta fuentes
// pasivas: nunca toca la infraestructura del target.
type Module struct {
	*common.BaseCLIModule

	threads int
	sources []string
}

// New crea el módulo con su configuración efectiva.
func New(logger logx.Logger, threads int, sources []string) *Module {
	if threads <= 0 {
		threads = defaultThreads
	}
	return &Module{
		BaseCLIModule: common.NewBaseCLIModule(logger.With("module", moduleName), "subfinder"),
		threads:       threads,
		sources:       sources,
	}
}

// Name retorna el nombre del módulo.
func (m *Module) Name() string { return moduleName }

// Version retorna la versión del módulo.
func (m *Module) Version() string { return moduleVersion }

// Invoke ejecuta el descubrimiento (o su proyección en dry-run).
func (m *Module) Invoke(ctx context.Context, inv domain.Invocation) (*domain.Result, error) {
	argv := m.argv(inv.Target)

	if !inv.Execute {
		return domain.NewPlannedResult(moduleName, moduleVersion, inv.Target, argv, "passive subdomain discovery for "+inv.Target), nil
	}

	res := domain.NewResult(moduleName, moduleVersion, inv.Target)

	if err := common.EnsureOutputDir(inv.OutputDir); err != nil {
		res.SetError(err.Error())
		return res.Finish(false), err
	}

	collector := &common.LineCollector{}
	stderr, err := m.ExecuteCLI(ctx, argv[1:], collector)
	if err != nil {
		res.SetError(err.Error())
		if stderr != "" {
			res.Summary["stderr"] = truncate(stderr, 2048)
		}
		return res.Finish(false), err
	}

	subdomains := dedupe(filterDomains(collector.Lines))
	res.Summary["subdomains"] = len(subdomains)

	if len(subdomains) > 0 {
		artifact := filepath.Join(inv.OutputDir, "subdomains.txt")
		if err := os.WriteFile(artifact, []byte(strings.Join(subdomains, "\n")+"\n"), 0o644); err != nil {
			m.Logger().Warn("failed to persist subdomains", "error", err.Error())
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
		"subfinder",
		"-d", target,
		"-silent",
		"-t", strconv.Itoa(m.threads),
	}
	if len(m.sources) > 0 {
		argv = append(argv, "-s", strings.Join(m.sources, ","))
	}
	return argv
}

// filterDomains descarta las líneas que no parsean como dominio (banners,
// warnings que el tool cuela por stdout).
func filterDomains(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		candidate := validator.NormalizeTarget(line)
		if validator.IsDomain(candidate) {
			out = append(out, candidate)
		}
	}
	return out
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
