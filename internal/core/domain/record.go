// internal/core/domain/record.go
package domain

import (
	"time"
)

// ModuleExecutionRecord es el registro de ejecución de un módulo dentro de un
// job: hay exactamente uno por par (job, módulo). Lo crea el Orchestrator al
// planificar el módulo, se reescribe incrementalmente en el JobStore (idempotente
// por clave job+módulo) y queda inmutable al salir de running.
type ModuleExecutionRecord struct {
	// JobID job dueño del registro
	JobID string `json:"job_id"`

	// Module nombre del módulo
	Module string `json:"module"`

	// Version versión semántica declarada por el módulo
	Version string `json:"version"`

	// Status estado actual
	Status ModuleStatus `json:"status"`

	// Attempts número de intentos realizados por la retry policy
	Attempts int `json:"attempts"`

	// Timestamps del ciclo de vida
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	// Summary hechos agregados reportados por el módulo
	Summary map[string]any `json:"summary,omitempty"`

	// Artifacts locators opacos emitidos por el Artifact Sink
	Artifacts []string `json:"artifacts,omitempty"`

	// RawRef referencia al output crudo (opcional)
	RawRef string `json:"raw_ref,omitempty"`

	// SkipReason razón del skip (solo con Status == skipped)
	SkipReason SkipReason `json:"skip_reason,omitempty"`

	// ErrorDetail detalle del último error (solo con Status == failed)
	ErrorDetail string `json:"error_detail,omitempty"`
}

// NewModuleExecutionRecord crea un registro en estado pending.
func NewModuleExecutionRecord(jobID, module, version string) *ModuleExecutionRecord {
	return &ModuleExecutionRecord{
		JobID:   jobID,
		Module:  module,
		Version: version,
		Status:  ModuleStatusPending,
	}
}

// MarkRunning transiciona el registro a running.
func (r *ModuleExecutionRecord) MarkRunning() error {
	if r.Status.IsTerminal() {
		return ErrRecordTerminal
	}
	now := time.Now().UTC()
	r.Status = ModuleStatusRunning
	r.StartedAt = &now
	return nil
}

// MarkSucceeded cierra el registro con el resultado normalizado.
func (r *ModuleExecutionRecord) MarkSucceeded(res *Result) error {
	if r.Status.IsTerminal() {
		return ErrRecordTerminal
	}
	now := time.Now().UTC()
	r.Status = ModuleStatusSucceeded
	r.EndedAt = &now
	if res != nil {
		r.Version = res.Version
		r.Summary = res.Summary
		r.Artifacts = res.Artifacts
	}
	return nil
}

// MarkFailed cierra el registro preservando el detalle del último error.
// El resultado del último intento (si existe) se conserva en el summary para
// diagnóstico; el detalle crudo nunca se mezcla con el summary de reporte.
func (r *ModuleExecutionRecord) MarkFailed(res *Result, detail string) error {
	if r.Status.IsTerminal() {
		return ErrRecordTerminal
	}
	now := time.Now().UTC()
	r.Status = ModuleStatusFailed
	r.EndedAt = &now
	r.ErrorDetail = detail
	if res != nil {
		r.Summary = res.Summary
		r.Artifacts = res.Artifacts
	}
	return nil
}

// MarkSkipped cierra el registro sin haber invocado el módulo.
func (r *ModuleExecutionRecord) MarkSkipped(reason SkipReason) error {
	if r.Status.IsTerminal() {
		return ErrRecordTerminal
	}
	now := time.Now().UTC()
	r.Status = ModuleStatusSkipped
	r.EndedAt = &now
	r.SkipReason = reason
	return nil
}

// Duration retorna la duración de la ejecución (cero si no terminó).
func (r *ModuleExecutionRecord) Duration() time.Duration {
	if r.StartedAt == nil || r.EndedAt == nil {
		return 0
	}
	return r.EndedAt.Sub(*r.StartedAt)
}
