// internal/modules/subfinder/registry.go
package subfinder

import (
	"time"

	"recondragon/internal/core/domain"
	"recondragon/internal/core/ports"
	"recondragon/internal/platform/logx"
	"recondragon/internal/platform/registry"
)

// Auto-registro al importar el paquete.
func init() {
	if err := registry.Global().Register(
		moduleName,
		factory,
		ports.ModuleMetadata{
			Name:           moduleName,
			Description:    "Passive multi-source subdomain discovery via subfinder",
			Version:        moduleVersion,
			Safety:         domain.SafetyReadOnly,
			DependsOn:      []string{},
			DefaultTimeout: 4 * time.Minute,
		},
	); err != nil {
		logx.New().Warn("failed to register subfinder module", "error", err.Error())
	}
}

func factory(cfg ports.ModuleConfig) (ports.Module, error) {
	threads := registry.GetIntOption(cfg.Options, "threads", defaultThreads)
	sources := registry.GetSliceOption(cfg.Options, "sources", nil)

	return New(logx.New(), threads, sources), nil
}
