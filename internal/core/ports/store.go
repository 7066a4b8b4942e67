// internal/core/ports/store.go
package ports

import (
	"context"
	"time"

	"recondragon/internal/core/domain"
)

// JobStore es el port hacia el almacén externo de estado de jobs. El
// Orchestrator escribe a través de él en cada transición para que el progreso
// parcial sobreviva un crash del proceso.
//
// Las implementaciones deben tolerar upserts concurrentes de registros con
// distinto nombre de módulo dentro del mismo job (el Orchestrator garantiza
// que dos módulos del mismo job nunca escriben el mismo registro a la vez) y
// ofrecer escritura durable at-least-once: el upsert es idempotente por clave
// (job id, módulo).
type JobStore interface {
	// CreateJob persiste el registro inicial del job
	CreateJob(ctx context.Context, job *domain.Job) error

	// UpdateJobStatus actualiza estado y timestamps del job
	UpdateJobStatus(ctx context.Context, jobID string, status domain.JobStatus, startedAt, endedAt *time.Time) error

	// UpsertModuleRecord crea o reescribe el registro de un módulo
	UpsertModuleRecord(ctx context.Context, jobID string, record *domain.ModuleExecutionRecord) error

	// ReadJob recupera un job por ID
	ReadJob(ctx context.Context, jobID string) (*domain.Job, error)

	// ReadModuleRecords recupera los registros de módulo de un job (para
	// inspeccionar o retomar una ejecución interrumpida)
	ReadModuleRecords(ctx context.Context, jobID string) ([]*domain.ModuleExecutionRecord, error)

	// Close libera la conexión con el almacén
	Close() error
}
