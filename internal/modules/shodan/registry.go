// internal/modules/shodan/registry.go
package shodan

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
// compartan las respuestas cacheadas.
var sharedCache = cache.NewMemoryCache(256)

// Auto-registro al importar el paquete.
func init() {
	if err := registry.Global().Register(
		moduleName,
		factory,
		ports.ModuleMetadata{
			Name:           moduleName,
			Description:    "Host intelligence enrichment via the Shodan API (cached 24h)",
			Version:        moduleVersion,
			Safety:         domain.SafetyReadOnly,
			DependsOn:      []string{},
			DefaultTimeout: 2 * time.Minute,
		},
	); err != nil {
		logx.New().Warn("failed to register shodan_enrich module", "error", err.Error())
	}
}

func factory(cfg ports.ModuleConfig) (ports.Module, error) {
	apiKey := registry.GetStringOption(cfg.Options, "api_key", os.Getenv("SHODAN_API_KEY"))
	ttl := registry.GetDurationOption(cfg.Options, "cache_ttl", defaultCacheTTL)

	return New(logx.New(), apiKey, sharedCache, ttl), nil
}
