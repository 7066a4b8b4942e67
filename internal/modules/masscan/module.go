// Package masscan implements high-rate TCP port sweeps on top of the masscan
// binary.
package masscan

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
	moduleName    = "masscan"
	moduleVersion = "1.0.0"

	defaultPorts = "1-65535"
	defaultRate  = 1000
)

// Module ejecuta masscan contra el target y parsea su salida JSON.
type Module struct {
	*common.BaseCLIModule

	ports string
	rate  int
}

// New crea el módulo con su configuración efectiva.
func New(logger logx.Logger, ports string, rate int) *Module {
	if ports == "" {
		ports = defaultPorts
	}
	if rate <= 0 {
		rate = defaultRate
	}
	return &Module{
		BaseCLIModule: common.NewBaseCLIModule(logger.With("module", moduleName), "masscan"),
		ports:         ports,
		rate:          rate,
	}
}

// Name retorna el nombre del módulo.
func (m *Module) Name() string { return moduleName }

// Version retorna la versión del módulo.
func (m *Module) Version() string { return moduleVersion }

// Invoke ejecuta el sweep (o su proyección en dry-run).
func (m *Module) Invoke(ctx context.Context, inv domain.Invocation) (*domain.Result, error) {
	outFile := filepath.Join(inv.OutputDir, "masscan.json")
	argv := m.argv(inv.Target, outFile)

	if !inv.Execute {
		return domain.NewPlannedResult(moduleName, moduleVersion, inv.Target, argv, "high-rate tcp sweep of "+inv.Target), nil
	}

	res := domain.NewResult(moduleName, moduleVersion, inv.Target)

	if err := common.EnsureOutputDir(inv.OutputDir); err != nil {
		res.SetError(err.Error())
		return res.Finish(false), err
	}

	// argv[0] es el nombre del binario, no forma parte de los args
	stderr, err := m.ExecuteCLI(ctx, argv[1:], common.DiscardHandler{})
	if err != nil {
		res.SetError(err.Error())
		if stderr != "" {
			res.Summary["stderr"] = truncate(stderr, 2048)
		}
		return res.Finish(false), err
	}

	hosts, openPorts := parseOutput(m.Logger(), outFile)
	res.Summary["hosts"] = hosts
	res.Summary["open_ports"] = openPorts
	if _, statErr := os.Stat(outFile); statErr == nil {
		res.AddArtifact(outFile)
		res.Raw = outFile
	}

	return res.Finish(true), nil
}

// argv es la línea de comando completa, también usada por la proyección.
func (m *Module) argv(target, outFile string) []string {
	return []string{
		"masscan",
		"-p", m.ports,
		"--rate", strconv.Itoa(m.rate),
		"-oJ", outFile,
		target,
	}
}

// hostEntry es una entrada de la salida -oJ de masscan.
type hostEntry struct {
	IP    string `json:"ip"`
	Ports []struct {
		Port   int    `json:"port"`
		Proto  string `json:"proto"`
		Status string `json:"status"`
	} `json:"ports"`
}

// parseOutput lee el archivo -oJ. El JSON de masscan es notoriamente laxo
// (coma colgante antes del cierre), así que ante un Unmarshal fallido se
// degrada a parsear línea a línea.
func parseOutput(logger logx.Logger, path string) (hosts, openPorts int) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("failed to read masscan output", "error", err.Error())
		return 0, 0
	}

	var entries []hostEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		entries = parseLenient(data)
	}

	seen := make(map[string]struct{})
	for _, e := range entries {
		if e.IP == "" {
			continue
		}
		if _, dup := seen[e.IP]; !dup {
			seen[e.IP] = struct{}{}
			hosts++
		}
		for _, p := range e.Ports {
			if p.Status == "" || p.Status == "open" {
				openPorts++
			}
		}
	}
	return hosts, openPorts
}

func parseLenient(data []byte) []hostEntry {
	var entries []hostEntry
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ","))
		if !strings.HasPrefix(line, "{") || !strings.Contains(line, `"ip"`) {
			continue
		}
		var e hostEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
