// internal/core/domain/report.go
package domain

import "sync"

// JobReport consolida el desenlace de un job: el job finalizado, los registros
// por módulo y los resultados canónicos de los módulos invocados. Es la vista
// en memoria; la verdad durable vive en el JobStore.
type JobReport struct {
	Job     *Job
	Records []*ModuleExecutionRecord
	Results map[string]*Result

	mu sync.Mutex
}

// NewJobReport crea un reporte vacío para un job.
func NewJobReport(job *Job) *JobReport {
	return &JobReport{
		Job:     job,
		Records: []*ModuleExecutionRecord{},
		Results: make(map[string]*Result),
	}
}

// AddResult registra el resultado canónico de un módulo. Es seguro llamarlo
// desde los workers concurrentes de una wave.
func (r *JobReport) AddResult(module string, res *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Results[module] = res
}

// Result retorna el resultado canónico de un módulo (nil si no existe).
func (r *JobReport) Result(module string) *Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Results[module]
}

// Record busca el registro de un módulo (nil si no existe).
func (r *JobReport) Record(module string) *ModuleExecutionRecord {
	for _, rec := range r.Records {
		if rec.Module == module {
			return rec
		}
	}
	return nil
}

// CountByStatus retorna cuántos módulos terminaron en cada estado.
func (r *JobReport) CountByStatus() map[ModuleStatus]int {
	counts := make(map[ModuleStatus]int)
	for _, rec := range r.Records {
		counts[rec.Status]++
	}
	return counts
}

// Succeeded retorna el número de módulos en succeeded.
func (r *JobReport) Succeeded() int {
	return r.CountByStatus()[ModuleStatusSucceeded]
}

// Finished indica si todos los registros alcanzaron un estado terminal.
func (r *JobReport) Finished() bool {
	for _, rec := range r.Records {
		if !rec.Status.IsTerminal() {
			return false
		}
	}
	return true
}

// FinalJobStatus deriva el estado terminal del job a partir de los registros:
// completed si todos succeeded, failed si ninguno succeeded, partial en
// cualquier mezcla.
func (r *JobReport) FinalJobStatus() JobStatus {
	counts := r.CountByStatus()
	succeeded := counts[ModuleStatusSucceeded]
	notSucceeded := counts[ModuleStatusFailed] + counts[ModuleStatusSkipped]

	switch {
	case succeeded > 0 && notSucceeded == 0:
		return JobStatusCompleted
	case succeeded == 0:
		return JobStatusFailed
	default:
		return JobStatusPartial
	}
}
