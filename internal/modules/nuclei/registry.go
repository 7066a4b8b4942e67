// internal/modules/nuclei/registry.go
package nuclei

import (
	"time"

	"recondragon/internal/core/domain"
	"recondragon/internal/core/ports"
	"recondragon/internal/platform/logx"
	"recondragon/internal/platform/registry"
)

// Auto-registro al importar el paquete. nuclei declara dependencia de nmap:
// sin puertos abiertos conocidos el escaneo de vulnerabilidades aporta poco.
func init() {
	if err := registry.Global().Register(
		moduleName,
		factory,
		ports.ModuleMetadata{
			Name:           moduleName,
			Description:    "Template-based vulnerability scanning via nuclei",
			Version:        moduleVersion,
			Safety:         domain.SafetyActive,
			DependsOn:      []string{"nmap"},
			DefaultTimeout: 45 * time.Minute,
		},
	); err != nil {
		logx.New().Warn("failed to register nuclei module", "error", err.Error())
	}
}

func factory(cfg ports.ModuleConfig) (ports.Module, error) {
	severity := registry.GetStringOption(cfg.Options, "severity", defaultSeverity)
	templates := registry.GetStringOption(cfg.Options, "templates", "")
	rateLimit := registry.GetIntOption(cfg.Options, "rate_limit", 0)

	return New(logx.New(), severity, templates, rateLimit), nil
}
