// internal/modules/httpxprobe/registry.go
package httpxprobe

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
			Description:    "HTTP/HTTPS liveness probing with header and title capture",
			Version:        moduleVersion,
			Safety:         domain.SafetyActive,
			DependsOn:      []string{"subfinder"},
			DefaultTimeout: 2 * time.Minute,
		},
	); err != nil {
		logx.New().Warn("failed to register httpx_probe module", "error", err.Error())
	}
}

func factory(cfg ports.ModuleConfig) (ports.Module, error) {
	requestTimeout := registry.GetDurationOption(cfg.Options, "request_timeout", 10*time.Second)
	insecure := registry.GetBoolOption(cfg.Options, "insecure", false)

	return New(logx.New(), requestTimeout, insecure), nil
}
