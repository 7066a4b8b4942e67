// Package nmap implements the port scanning module on top of the nmap binary,
// driven through the Ullaakut/nmap library.
package nmap

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"

	nmaplib "github.com/Ullaakut/nmap/v3"

	"recondragon/internal/core/domain"
	"recondragon/internal/modules/common"
	"recondragon/internal/platform/errors"
	"recondragon/internal/platform/logx"
)

const (
	moduleName    = "nmap"
	moduleVersion = "1.1.0"

	defaultPorts = "1-1000"
)

// Module escanea puertos TCP del target con detección de servicios opcional.
type Module struct {
	logger logx.Logger

	ports         string
	serviceDetect bool
	skipDiscovery bool
	minRate       int
}

// New crea el módulo con su configuración efectiva.
func New(logger logx.Logger, ports string, serviceDetect, skipDiscovery bool, minRate int) *Module {
	if ports == "" {
		ports = defaultPorts
	}
	return &Module{
		logger:        logger.With("module", moduleName),
		ports:         ports,
		serviceDetect: serviceDetect,
		skipDiscovery: skipDiscovery,
		minRate:       minRate,
	}
}

// Name retorna el nombre del módulo.
func (m *Module) Name() string { return moduleName }

// Version retorna la versión del módulo.
func (m *Module) Version() string { return moduleVersion }

// Close libera recursos. El proceso nmap lo gestiona la librería vía context.
func (m *Module) Close() error { return nil }

// Invoke ejecuta el escaneo (o su proyección en dry-run).
func (m *Module) Invoke(ctx context.Context, inv domain.Invocation) (*domain.Result, error) {
	argv := m.argv(inv.Target)

	if !inv.Execute {
		return domain.NewPlannedResult(moduleName, moduleVersion, inv.Target, argv, "tcp port scan of "+inv.Target), nil
	}

	if _, err := exec.LookPath("nmap"); err != nil {
		res := domain.NewResult(moduleName, moduleVersion, inv.Target)
		wrapped := errors.Wrap(errors.ErrToolNotAvailable, "nmap not found in PATH")
		res.SetError(wrapped.Error())
		return res.Finish(false), wrapped
	}
	if err := common.EnsureOutputDir(inv.OutputDir); err != nil {
		res := domain.NewResult(moduleName, moduleVersion, inv.Target)
		res.SetError(err.Error())
		return res.Finish(false), err
	}

	res := domain.NewResult(moduleName, moduleVersion, inv.Target)

	opts := []nmaplib.Option{
		nmaplib.WithTargets(inv.Target),
		nmaplib.WithPorts(m.ports),
	}
	if m.serviceDetect {
		opts = append(opts, nmaplib.WithServiceInfo())
	}
	if m.skipDiscovery {
		opts = append(opts, nmaplib.WithSkipHostDiscovery())
	}
	if m.minRate > 0 {
		opts = append(opts, nmaplib.WithMinRate(m.minRate))
	}

	scanner, err := nmaplib.NewScanner(ctx, opts...)
	if err != nil {
		wrapped := errors.Wrapf(errors.ErrToolIO, "failed to create nmap scanner: %v", err)
		res.SetError(wrapped.Error())
		return res.Finish(false), wrapped
	}

	run, warnings, err := scanner.Run()
	if err != nil {
		wrapped := err
		if ctx.Err() == context.DeadlineExceeded {
			wrapped = errors.Wrap(errors.ErrTimeout, "nmap exceeded its deadline")
		} else if ctx.Err() == nil {
			wrapped = errors.Wrapf(errors.ErrToolIO, "nmap run failed: %v", err)
		}
		res.SetError(wrapped.Error())
		return res.Finish(false), wrapped
	}
	if warnings != nil && len(*warnings) > 0 {
		m.logger.Warn("nmap produced warnings", "warnings", *warnings)
	}

	hosts, openPorts, services := summarize(run)
	res.Summary["hosts"] = hosts
	res.Summary["open_ports"] = openPorts
	if m.serviceDetect {
		res.Summary["services"] = services
	}

	artifact, err := m.writeRun(inv.OutputDir, run)
	if err != nil {
		m.logger.Warn("failed to persist nmap output", "error", err.Error())
	} else {
		res.AddArtifact(artifact)
		res.Raw = artifact
	}

	return res.Finish(true), nil
}

// Validate verifica la configuración del módulo.
func (m *Module) Validate() error {
	if m.ports == "" {
		return errors.Wrap(errors.ErrInvalidConfig, "empty port specification")
	}
	return nil
}

// HealthCheck verifica que el binario nmap esté disponible.
func (m *Module) HealthCheck(ctx context.Context) error {
	if _, err := exec.LookPath("nmap"); err != nil {
		return errors.Wrap(errors.ErrToolNotAvailable, "nmap not found in PATH")
	}
	return nil
}

// argv es la línea de comando equivalente, usada por la proyección dry-run.
func (m *Module) argv(target string) []string {
	argv := []string{"nmap", "-p", m.ports}
	if m.serviceDetect {
		argv = append(argv, "-sV")
	}
	if m.skipDiscovery {
		argv = append(argv, "-Pn")
	}
	argv = append(argv, target)
	return argv
}

// summarize agrega hosts levantados, puertos abiertos y servicios detectados.
func summarize(run *nmaplib.Run) (hosts, openPorts int, services []string) {
	seen := make(map[string]struct{})
	for _, h := range run.Hosts {
		if len(h.Addresses) == 0 {
			continue
		}
		hostUp := false
		for _, p := range h.Ports {
			if p.State.State != "open" {
				continue
			}
			hostUp = true
			openPorts++
			if p.Service.Name != "" {
				if _, dup := seen[p.Service.Name]; !dup {
					seen[p.Service.Name] = struct{}{}
					services = append(services, p.Service.Name)
				}
			}
		}
		if hostUp || h.Status.State == "up" {
			hosts++
		}
	}
	return hosts, openPorts, services
}

// writeRun persiste el resultado parseado como artifact JSON.
func (m *Module) writeRun(dir string, run *nmaplib.Run) (string, error) {
	path := filepath.Join(dir, "scan.json")
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
