// internal/core/domain/result.go
package domain

import (
	"strings"
	"time"
)

// Result es el resultado canónico de una invocación de módulo. Es el contrato
// durable que consumen UI y reporting: la forma wire (tags JSON) debe
// permanecer estable. Cada invocación (éxito o fallo) produce exactamente un
// Result, nunca cero ni más de uno por intento.
type Result struct {
	// Module nombre del módulo que produjo el resultado
	Module string `json:"module"`

	// Version versión semántica del módulo
	Version string `json:"version"`

	// Target objetivo contra el que se invocó
	Target string `json:"target"`

	// StartTime / EndTime epoch seconds (float)
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`

	// Success indica si la invocación terminó bien
	Success bool `json:"success"`

	// Summary hechos escalares/agregados del módulo
	Summary map[string]any `json:"summary"`

	// Artifacts lista ordenada de locators opacos
	Artifacts []string `json:"artifacts"`

	// Raw referencia opaca al output crudo (nullable)
	Raw any `json:"raw"`
}

// Epoch convierte un time.Time a epoch seconds con fracción.
func Epoch(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// NewResult crea un resultado con el reloj de inicio ya corriendo.
func NewResult(module, version, target string) *Result {
	return &Result{
		Module:    module,
		Version:   version,
		Target:    target,
		StartTime: Epoch(time.Now()),
		Summary:   make(map[string]any),
		Artifacts: []string{},
	}
}

// Finish cierra el resultado con el flag de éxito.
func (r *Result) Finish(success bool) *Result {
	r.EndTime = Epoch(time.Now())
	r.Success = success
	return r
}

// AddArtifact añade un locator a la lista de artifacts.
func (r *Result) AddArtifact(locator string) {
	if locator != "" {
		r.Artifacts = append(r.Artifacts, locator)
	}
}

// SetError registra el error en el summary sin romper la forma canónica.
func (r *Result) SetError(msg string) {
	if r.Summary == nil {
		r.Summary = make(map[string]any)
	}
	r.Summary["error"] = msg
}

// Duration retorna la duración de la invocación.
func (r *Result) Duration() time.Duration {
	if r.EndTime <= r.StartTime {
		return 0
	}
	return time.Duration((r.EndTime - r.StartTime) * float64(time.Second))
}

// NewPlannedResult construye la proyección dry-run de un módulo: describe la
// acción que correría, con success=true y sin artifacts.
func NewPlannedResult(module, version, target string, argv []string, action string) *Result {
	res := NewResult(module, version, target)
	res.Summary["planned_command"] = strings.Join(argv, " ")
	res.Summary["planned_action"] = action
	res.Summary["dry_run"] = true
	return res.Finish(true)
}
