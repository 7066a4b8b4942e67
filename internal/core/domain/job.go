// internal/core/domain/job.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"recondragon/internal/platform/validator"
)

// Job representa una ejecución de reconocimiento contra un target.
// Lo crea el caller que lo somete; solo el Orchestrator lo muta durante la
// ejecución, y queda inmutable al alcanzar un estado terminal.
type Job struct {
	// ID identificador único del job
	ID string `json:"id"`

	// Workspace identifica el límite de autorización bajo el que corre el job
	Workspace string `json:"workspace"`

	// Target host, dominio o IP objetivo
	Target string `json:"target"`

	// Modules lista ordenada de módulos solicitados
	Modules []string `json:"modules"`

	// Options configuración por módulo (module name -> opciones opacas)
	Options map[string]map[string]any `json:"options,omitempty"`

	// Execute false = dry-run (ningún módulo toca el target)
	Execute bool `json:"execute"`

	// Authorized indica si el workspace autorizó acciones activas
	Authorized bool `json:"authorized"`

	// Scope patrones de targets permitidos (exacto, *.sufijo, CIDR)
	Scope []string `json:"scope,omitempty"`

	// Status estado actual del job
	Status JobStatus `json:"status"`

	// Timestamps del ciclo de vida
	CreatedAt time.Time  `json:"created_at"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// NewJob crea un job en estado queued con un ID nuevo.
func NewJob(workspace, target string, modules []string) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Workspace: workspace,
		Target:    validator.NormalizeTarget(target),
		Modules:   append([]string{}, modules...),
		Options:   make(map[string]map[string]any),
		Status:    JobStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate verifica que el job esté bien formado antes de ejecutarlo.
func (j *Job) Validate() error {
	if j.Target == "" {
		return ErrEmptyTarget
	}
	j.Target = validator.NormalizeTarget(j.Target)
	if !validator.IsTarget(j.Target) {
		return fmt.Errorf("%w: %s", ErrInvalidTarget, j.Target)
	}
	if j.Workspace == "" {
		return ErrEmptyWorkspace
	}
	if len(j.Modules) == 0 {
		return ErrNoModulesRequested
	}
	if bad, ok := validator.ValidateScope(j.Scope); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidScope, bad)
	}
	return nil
}

// TargetInScope verifica si el target del job hace match con su scope.
func (j *Job) TargetInScope() bool {
	return validator.MatchesScope(j.Target, j.Scope)
}

// ModuleOptions retorna las opciones configuradas para un módulo (nunca nil).
func (j *Job) ModuleOptions(module string) map[string]any {
	if opts, ok := j.Options[module]; ok && opts != nil {
		return opts
	}
	return map[string]any{}
}

// MarkRunning transiciona el job a running.
func (j *Job) MarkRunning() error {
	if j.Status.IsTerminal() {
		return ErrJobTerminal
	}
	now := time.Now().UTC()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	return nil
}

// MarkFinished transiciona el job a un estado terminal.
func (j *Job) MarkFinished(status JobStatus) error {
	if j.Status.IsTerminal() {
		return ErrJobTerminal
	}
	now := time.Now().UTC()
	j.Status = status
	j.EndedAt = &now
	return nil
}

// String retorna una representación legible del job.
func (j *Job) String() string {
	return fmt.Sprintf("Job{id=%s, target=%s, modules=%d, execute=%t, status=%s}",
		j.ID, j.Target, len(j.Modules), j.Execute, j.Status)
}
