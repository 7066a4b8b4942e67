// internal/core/ports/notifier.go
package ports

import (
	"context"
	"time"
)

// Notifier es el port del progress feed. Implementa el patrón Observer para
// desacoplar el Orchestrator de los consumidores (presenter de terminal,
// webhooks, status feed...). El consumo es opcional: un evento descartado
// nunca afecta la correctitud, porque el JobStore es la fuente autoritativa.
type Notifier interface {
	// Notify entrega un evento de progreso
	Notify(ctx context.Context, event Event) error

	// Close cierra el notifier y libera recursos
	Close() error
}

// EventType define los tipos de eventos del sistema.
type EventType string

const (
	// Job lifecycle
	EventTypeJobTransition EventType = "job.transition"

	// Module lifecycle (una transición de estado por evento)
	EventTypeModuleTransition EventType = "module.transition"

	// Retry policy
	EventTypeModuleRetry EventType = "module.retry"
)

// Event representa una transición de estado observable.
type Event struct {
	// Type tipo de evento
	Type EventType

	// JobID job al que pertenece el evento
	JobID string

	// Module módulo involucrado (vacío en eventos de job)
	Module string

	// From / To estados de la transición
	From string
	To   string

	// Timestamp momento del evento
	Timestamp time.Time

	// Data datos específicos del evento (attempt count, skip reason...)
	Data any
}

// NewJobEvent crea un evento de transición de job.
func NewJobEvent(jobID, from, to string) Event {
	return Event{
		Type:      EventTypeJobTransition,
		JobID:     jobID,
		From:      from,
		To:        to,
		Timestamp: time.Now().UTC(),
	}
}

// NewModuleEvent crea un evento de transición de módulo.
func NewModuleEvent(jobID, module, from, to string, data any) Event {
	return Event{
		Type:      EventTypeModuleTransition,
		JobID:     jobID,
		Module:    module,
		From:      from,
		To:        to,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// NewRetryEvent crea un evento de reintento de módulo.
func NewRetryEvent(jobID, module string, attempt int) Event {
	return Event{
		Type:      EventTypeModuleRetry,
		JobID:     jobID,
		Module:    module,
		From:      "running",
		To:        "running",
		Timestamp: time.Now().UTC(),
		Data:      attempt,
	}
}
