// internal/core/domain/enums.go
package domain

// JobStatus define el estado de un job de reconocimiento.
type JobStatus string

const (
	// JobStatusQueued el job fue creado pero aún no comenzó
	JobStatusQueued JobStatus = "queued"

	// JobStatusRunning el orchestrator está ejecutando los módulos
	JobStatusRunning JobStatus = "running"

	// JobStatusCompleted todos los módulos terminaron en succeeded
	JobStatusCompleted JobStatus = "completed"

	// JobStatusPartial al menos un módulo terminó bien y al menos uno no
	JobStatusPartial JobStatus = "partial"

	// JobStatusFailed ningún módulo terminó en succeeded
	JobStatusFailed JobStatus = "failed"
)

// IsValid verifica si el estado del job es válido.
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusQueued, JobStatusRunning, JobStatusCompleted, JobStatusPartial, JobStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal verifica si el estado es absorbente (el job no vuelve a mutar).
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusPartial, JobStatusFailed:
		return true
	default:
		return false
	}
}

// String retorna la representación string del estado.
func (s JobStatus) String() string {
	return string(s)
}

// ModuleStatus define el estado de ejecución de un módulo dentro de un job.
type ModuleStatus string

const (
	ModuleStatusPending   ModuleStatus = "pending"
	ModuleStatusRunning   ModuleStatus = "running"
	ModuleStatusSucceeded ModuleStatus = "succeeded"
	ModuleStatusFailed    ModuleStatus = "failed"
	ModuleStatusSkipped   ModuleStatus = "skipped"
)

// IsValid verifica si el estado del módulo es válido.
func (s ModuleStatus) IsValid() bool {
	switch s {
	case ModuleStatusPending, ModuleStatusRunning, ModuleStatusSucceeded, ModuleStatusFailed, ModuleStatusSkipped:
		return true
	default:
		return false
	}
}

// IsTerminal verifica si el módulo alcanzó un estado final.
func (s ModuleStatus) IsTerminal() bool {
	switch s {
	case ModuleStatusSucceeded, ModuleStatusFailed, ModuleStatusSkipped:
		return true
	default:
		return false
	}
}

// String retorna la representación string del estado.
func (s ModuleStatus) String() string {
	return string(s)
}

// SkipReason explica por qué un módulo terminó en skipped.
type SkipReason string

const (
	// SkipReasonNone el módulo no fue saltado
	SkipReasonNone SkipReason = ""

	// SkipReasonNotAuthorized el gate denegó la ejecución (workspace sin
	// autorización o target fuera de scope)
	SkipReasonNotAuthorized SkipReason = "NotAuthorized"

	// SkipReasonDependencyFailed una dependencia declarada terminó en failed
	SkipReasonDependencyFailed SkipReason = "DependencyFailed"

	// SkipReasonCancelled el job fue cancelado antes de admitir el módulo
	SkipReasonCancelled SkipReason = "Cancelled"
)

// String retorna la representación string de la razón.
func (r SkipReason) String() string {
	return string(r)
}

// SafetyClass clasifica el impacto de un módulo sobre el target.
type SafetyClass string

const (
	// SafetyReadOnly el módulo solo consulta datos ya públicos (OSINT, APIs)
	SafetyReadOnly SafetyClass = "read-only"

	// SafetyActive el módulo interactúa directamente con el target
	// (port scanning, probing, escaneo de vulnerabilidades)
	SafetyActive SafetyClass = "active"
)

// IsValid verifica si la clase es válida.
func (c SafetyClass) IsValid() bool {
	return c == SafetyReadOnly || c == SafetyActive
}

// RequiresAuthorization indica si la clase exige pasar el check de
// autorización antes de una ejecución real.
func (c SafetyClass) RequiresAuthorization() bool {
	return c == SafetyActive
}

// String retorna la representación string de la clase.
func (c SafetyClass) String() string {
	return string(c)
}
