// internal/modules/nmap/registry.go
package nmap

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
			Description:    "TCP port scanning and service detection via nmap",
			Version:        moduleVersion,
			Safety:         domain.SafetyActive,
			DependsOn:      []string{},
			DefaultTimeout: 30 * time.Minute,
		},
	); err != nil {
		logx.New().Warn("failed to register nmap module", "error", err.Error())
	}
}

// factory crea el módulo desde su configuración.
func factory(cfg ports.ModuleConfig) (ports.Module, error) {
	portSpec := registry.GetStringOption(cfg.Options, "ports", defaultPorts)
	serviceDetect := registry.GetBoolOption(cfg.Options, "service_detect", true)
	skipDiscovery := registry.GetBoolOption(cfg.Options, "skip_discovery", false)
	minRate := registry.GetIntOption(cfg.Options, "min_rate", 0)

	return New(logx.New(), portSpec, serviceDetect, skipDiscovery, minRate), nil
}
