// internal/modules/harvester/registry.go
package harvester

import (
	"os"
	"time"

	"recondragon/internal/core/domain"
	"recondragon/internal/core/ports"
	"recondragon/internal/platform/cache"
	"recondragon/internal/platform/logx"
	"recondragon/internal/platform/registry"
)

// sharedCache vive a nivel de paquete para que todos los jobs del proceso
// compartan las respuestas de las APIs de enriquecimiento.
var sharedCache = cache.NewMemoryCache(256)

// Auto-registro al importar el paquete.
func init() {
	if err := registry.Global().Register(
		moduleName,
		factory,
		ports.ModuleMetadata{
			Name:           moduleName,
			Description:    "OSINT harvesting via theHarvester with crt.sh, hunter.io and HIBP enrichment",
			Version:        moduleVersion,
			Safety:         domain.SafetyReadOnly,
			DependsOn:      []string{},
			DefaultTimeout: 5 * time.Minute,
		},
	); err != nil {
		logx.New().Warn("failed to register harvester module", "error", err.Error())
	}
}

func factory(cfg ports.ModuleConfig) (ports.Module, error) {
	hunterKey := registry.GetStringOption(cfg.Options, "hunter_api_key", os.Getenv("HUNTER_API_KEY"))
	hibpKey := registry.GetStringOption(cfg.Options, "hibp_api_key", os.Getenv("HIBP_API_KEY"))
	limit := registry.GetIntOption(cfg.Options, "limit", defaultLimit)
	sources := registry.GetSliceOption(cfg.Options, "sources", nil)

	return New(logx.New(), hunterKey, hibpKey, sharedCache, limit, sources), nil
}
