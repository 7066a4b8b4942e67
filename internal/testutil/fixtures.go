// internal/testutil/fixtures.go
package testutil

import (
	"time"

	"recondragon/internal/core/domain"
	"recondragon/internal/core/ports"
)

// NewTestJob crea un job válido y autorizado para tests.
func NewTestJob(target string, modules ...string) *domain.Job {
	if target == "" {
		target = "example.com"
	}
	if len(modules) == 0 {
		modules = []string{"nmap"}
	}
	job := domain.NewJob("ws-test", target, modules)
	job.Execute = true
	job.Authorized = true
	job.Scope = []string{target}
	return job
}

// NewDryRunJob crea un job en modo dry-run, sin autorización.
func NewDryRunJob(target string, modules ...string) *domain.Job {
	job := NewTestJob(target, modules...)
	job.Execute = false
	job.Authorized = false
	return job
}

// NewTestResult crea un resultado canónico exitoso ya cerrado.
func NewTestResult(module, target string) *domain.Result {
	res := domain.NewResult(module, "1.0.0", target)
	res.Summary["hosts"] = 1
	return res.Finish(true)
}

// NewTestModuleConfig crea una configuración de módulo con timeouts cortos
// aptos para tests.
func NewTestModuleConfig() ports.ModuleConfig {
	return ports.ModuleConfig{
		Enabled: true,
		Timeout: 5 * time.Second,
		Retries: 3,
		Options: make(map[string]any),
	}
}

// NewTestMetadata crea metadata de módulo para registrar en tests.
func NewTestMetadata(name string, safety domain.SafetyClass, deps ...string) ports.ModuleMetadata {
	return ports.ModuleMetadata{
		Name:           name,
		Description:    "test module " + name,
		Version:        "1.0.0",
		Safety:         safety,
		DependsOn:      deps,
		DefaultTimeout: 5 * time.Second,
	}
}
