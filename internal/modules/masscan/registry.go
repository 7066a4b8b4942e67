// internal/modules/masscan/registry.go
package masscan

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
			Description:    "High-rate TCP port sweep via masscan",
			Version:        moduleVersion,
			Safety:         domain.SafetyActive,
			DependsOn:      []string{},
			DefaultTimeout: 20 * time.Minute,
		},
	); err != nil {
		logx.New().Warn("failed to register masscan module", "error", err.Error())
	}
}

func factory(cfg ports.ModuleConfig) (ports.Module, error) {
	portSpec := registry.GetStringOption(cfg.Options, "ports", defaultPorts)
	rate := registry.GetIntOption(cfg.Options, "rate", defaultRate)

	return New(logx.New(), portSpec, rate), nil
}
