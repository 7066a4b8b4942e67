// internal/core/ports/module.go
package ports

import (
	"context"
	"time"

	"recondragon/internal/core/domain"
)

// Module es el port primario de los adapters de reconocimiento. Cualquier
// herramienta (nmap, masscan, nuclei, httpx, shodan, ...) se integra
// implementando esta interfaz.
//
// Contrato:
//   - Invoke debe completar o fallar dentro del deadline del context.
//   - Con Invocation.Execute == false el adapter NO realiza ninguna acción
//     sobre el target: retorna la proyección de la acción planeada
//     (success=true, sin artifacts).
//   - Toda invocación produce exactamente un Result; los fallos se reportan
//     como Result fallido + error sentinel, nunca como panic.
//   - Target es input no confiable: jamás se interpola en un shell.
type Module interface {
	// Name retorna el nombre único del módulo (ej: "nmap", "httpx_probe")
	Name() string

	// Version retorna la versión semántica del módulo
	Version() string

	// Invoke ejecuta el módulo contra el target
	Invoke(ctx context.Context, inv domain.Invocation) (*domain.Result, error)

	// Close libera recursos del módulo (procesos, conexiones)
	Close() error
}

// AdvancedModule extiende Module con capacidades opcionales que los adapters
// pueden implementar mediante type assertion.
type AdvancedModule interface {
	Module

	// Validate verifica que el módulo esté correctamente configurado
	Validate() error

	// HealthCheck verifica que el tool externo esté operativo
	HealthCheck(ctx context.Context) error
}

// ModuleConfig contiene la configuración de un módulo dentro de un job.
type ModuleConfig struct {
	// Enabled indica si el módulo está habilitado
	Enabled bool

	// Timeout tiempo máximo por invocación (no por job)
	Timeout time.Duration

	// Retries número máximo de reintentos ante fallos transitorios
	Retries int

	// Options opciones específicas del módulo (puertos, severity, API keys...)
	Options map[string]any
}

// DefaultModuleConfig retorna una configuración por defecto.
func DefaultModuleConfig() ModuleConfig {
	return ModuleConfig{
		Enabled: true,
		Timeout: 30 * time.Minute,
		Retries: 3,
		Options: make(map[string]any),
	}
}

// ModuleMetadata describe un módulo registrado: es el Module Descriptor que
// el planner usa para ordenar la ejecución y el gate para clasificarla.
type ModuleMetadata struct {
	Name        string
	Description string
	Version     string

	// Safety clasifica el módulo como read-only o active
	Safety domain.SafetyClass

	// DependsOn módulos que deben alcanzar succeeded o skipped antes de que
	// este pueda arrancar. Solo aplica cuando ambos están en el job; el grafo
	// completo debe ser acíclico.
	DependsOn []string

	// DefaultTimeout timeout sugerido por invocación
	DefaultTimeout time.Duration
}

// ModuleFactory crea una instancia de Module a partir de su configuración.
type ModuleFactory func(cfg ModuleConfig) (Module, error)
