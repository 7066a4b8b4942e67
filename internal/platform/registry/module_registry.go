// internal/platform/registry/module_registry.go
package registry

import (
	"sort"
	"sync"

	"recondragon/internal/core/ports"
	"recondragon/internal/platform/errors"
	"recondragon/internal/platform/logx"
)

// ModuleRegistry gestiona el registro y construcción de módulos. Implementa
// el patrón Registry + Factory para desacoplar la creación de adapters del
// código de aplicación. Durante una ejecución el registry es de solo lectura
// y puede compartirse entre orchestrators sin locking adicional.
type ModuleRegistry struct {
	mu        sync.RWMutex
	factories map[string]ports.ModuleFactory
	metadata  map[string]ports.ModuleMetadata
	logger    logx.Logger
}

// globalRegistry es la instancia global del registry.
var globalRegistry *ModuleRegistry
var once sync.Once

// Global retorna la instancia global del registry.
func Global() *ModuleRegistry {
	once.Do(func() {
		globalRegistry = NewModuleRegistry(logx.New())
	})
	return globalRegistry
}

// NewModuleRegistry crea un nuevo registry de módulos.
func NewModuleRegistry(logger logx.Logger) *ModuleRegistry {
	return &ModuleRegistry{
		factories: make(map[string]ports.ModuleFactory),
		metadata:  make(map[string]ports.ModuleMetadata),
		logger:    logger.With("component", "module-registry"),
	}
}

// Register registra una module factory con su descriptor.
// Típicamente llamado desde init() de cada module package.
func (r *ModuleRegistry) Register(name string, factory ports.ModuleFactory, meta ports.ModuleMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return errors.New("module name cannot be empty")
	}
	if factory == nil {
		return errors.Errorf("factory cannot be nil for module %s", name)
	}
	if !meta.Safety.IsValid() {
		return errors.Errorf("module %s declares invalid safety class %q", name, meta.Safety)
	}
	if _, exists := r.factories[name]; exists {
		return errors.Errorf("module %s is already registered", name)
	}

	r.factories[name] = factory
	r.metadata[name] = meta
	r.logger.Debug("module registered",
		"name", name,
		"safety", meta.Safety,
		"depends_on", meta.DependsOn,
	)

	return nil
}

// List retorna los nombres de todos los módulos registrados.
func (r *ModuleRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Metadata retorna el descriptor de un módulo.
func (r *ModuleRegistry) Metadata(name string) (ports.ModuleMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, exists := r.metadata[name]
	return meta, exists
}

// IsRegistered verifica si un módulo está registrado.
func (r *ModuleRegistry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[name]
	return exists
}

// Clear elimina todos los módulos registrados (útil para testing).
func (r *ModuleRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories = make(map[string]ports.ModuleFactory)
	r.metadata = make(map[string]ports.ModuleMetadata)
}

// build construye la instancia de un módulo ya validado como registrado.
func (r *ModuleRegistry) build(name string, cfg ports.ModuleConfig) (ports.Module, error) {
	r.mu.RLock()
	factory := r.factories[name]
	r.mu.RUnlock()

	module, err := factory(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build module %s", name)
	}
	return module, nil
}
