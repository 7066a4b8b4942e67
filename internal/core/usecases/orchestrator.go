// internal/core/usecases/orchestrator.go
package usecases

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"recondragon/internal/core/domain"
	"recondragon/internal/core/ports"
	"recondragon/internal/platform/logx"
	"recondragon/internal/platform/registry"
	"recondragon/internal/platform/resilience"
)

// Orchestrator ejecuta jobs de reconocimiento: resuelve el plan de waves,
// aplica el execution gate, corre los módulos con retry y concurrencia
// acotada, normaliza los resultados y persiste cada transición en el JobStore
// para que el progreso parcial sobreviva un crash.
type Orchestrator struct {
	registry   *registry.ModuleRegistry
	store      ports.JobStore
	sink       ports.ArtifactSink
	normalizer *Normalizer
	observers  []ports.Notifier
	logger     logx.Logger

	// Configuración
	maxWorkers int
	outputDir  string

	// Un circuit breaker por módulo, compartido entre jobs del mismo proceso
	breakersMu sync.Mutex
	breakers   map[string]*resilience.CircuitBreaker

	// Una cola de eventos por observer: un consumidor único por cola preserva
	// el orden del feed aunque la emisión venga de varias goroutines
	queues   []chan ports.Event
	notifyWg sync.WaitGroup
}

// OrchestratorOptions configura el orchestrator.
type OrchestratorOptions struct {
	Registry   *registry.ModuleRegistry
	Store      ports.JobStore
	Sink       ports.ArtifactSink
	Observers  []ports.Notifier
	Logger     logx.Logger
	MaxWorkers int
	OutputDir  string
}

// NewOrchestrator crea una nueva instancia del orchestrator.
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	if opts.Registry == nil {
		opts.Registry = registry.Global()
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 4
	}
	if opts.Logger == nil {
		opts.Logger = logx.New()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "out"
	}

	return &Orchestrator{
		registry:   opts.Registry,
		store:      opts.Store,
		sink:       opts.Sink,
		normalizer: NewNormalizer(),
		observers:  opts.Observers,
		logger:     opts.Logger.With("component", "orchestrator"),
		maxWorkers: opts.MaxWorkers,
		outputDir:  opts.OutputDir,
		breakers:   make(map[string]*resilience.CircuitBreaker),
	}
}

// Run ejecuta un job completo y retorna su reporte consolidado.
//
// Los errores de validación y de resolución del plan se reportan antes de que
// el job transicione a running: en ese caso el job queda en queued y ningún
// módulo se invoca. A partir de running el job siempre alcanza un estado
// terminal derivado de los registros, incluso ante cancelación.
func (o *Orchestrator) Run(ctx context.Context, job *domain.Job) (*domain.JobReport, error) {
	if job.Status.IsTerminal() {
		return nil, domain.ErrJobTerminal
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}

	o.startObservers()
	defer o.stopObservers()

	if err := o.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	plan, err := o.registry.Resolve(job.Modules, o.moduleConfigs(job))
	if err != nil {
		// El job queda en queued: nada corrió, nada que reportar
		return nil, err
	}
	defer o.closePlan(plan)

	o.logger.Info("starting job",
		"job_id", job.ID,
		"target", job.Target,
		"modules", plan.ModuleCount(),
		"waves", len(plan.Waves),
		"execute", job.Execute,
		"workers", o.maxWorkers,
	)

	if err := job.MarkRunning(); err != nil {
		return nil, err
	}
	o.persistJob(ctx, job)
	o.notify(ports.NewJobEvent(job.ID, domain.JobStatusQueued.String(), domain.JobStatusRunning.String()))

	// Un registro pending por módulo planificado, persistido de entrada para
	// que una ejecución interrumpida sea inspeccionable
	report := domain.NewJobReport(job)
	records := make(map[string]*domain.ModuleExecutionRecord, plan.ModuleCount())
	for _, name := range plan.Names() {
		rec := domain.NewModuleExecutionRecord(job.ID, name, "")
		records[name] = rec
		report.Records = append(report.Records, rec)
		o.persistRecord(ctx, job.ID, rec)
	}

	o.executeWaves(ctx, job, plan, records, report)

	// Todo lo que siguió pending tras una cancelación se cierra como skipped
	for _, rec := range report.Records {
		if !rec.Status.IsTerminal() {
			o.skipModule(ctx, job, rec, domain.SkipReasonCancelled, "job cancelled")
		}
	}

	final := report.FinalJobStatus()
	if err := job.MarkFinished(final); err != nil {
		return nil, err
	}
	o.persistJob(ctx, job)
	o.notify(ports.NewJobEvent(job.ID, domain.JobStatusRunning.String(), final.String()))

	o.logger.Info("job finished",
		"job_id", job.ID,
		"status", final,
		"succeeded", report.Succeeded(),
		"modules", len(report.Records),
	)

	return report, nil
}

// executeWaves corre las waves del plan en secuencia estricta. Dentro de una
// wave los módulos se admiten en orden de plan contra un semáforo job-wide.
func (o *Orchestrator) executeWaves(
	ctx context.Context,
	job *domain.Job,
	plan *registry.Plan,
	records map[string]*domain.ModuleExecutionRecord,
	report *domain.JobReport,
) {
	sem := make(chan struct{}, o.maxWorkers)

	for _, wave := range plan.Waves {
		if ctx.Err() != nil {
			o.logger.Warn("job cancelled between waves", "job_id", job.ID, "wave", wave.Index)
			return
		}

		o.logger.Debug("starting wave", "wave", wave.Index, "modules", len(wave.Modules))

		var wg sync.WaitGroup
		for _, pm := range wave.Modules {
			rec := records[pm.Meta.Name]

			if dep := o.failedDependency(pm.Meta, records); dep != "" {
				o.skipModule(ctx, job, rec, domain.SkipReasonDependencyFailed, "dependency "+dep+" failed")
				continue
			}

			if decision := EvaluateGate(job, pm.Meta); !decision.Allowed {
				o.skipModule(ctx, job, rec, decision.Reason, decision.Detail)
				continue
			}

			// Admisión en orden de plan: el semáforo se adquiere aquí, no en
			// la goroutine, para que el orden de arranque sea determinista
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				o.skipModule(ctx, job, rec, domain.SkipReasonCancelled, "job cancelled")
				continue
			}

			wg.Add(1)
			go func(pm registry.PlannedModule, rec *domain.ModuleExecutionRecord) {
				defer wg.Done()
				defer func() { <-sem }()
				o.runModule(ctx, job, pm, rec, report)
			}(pm, rec)
		}

		// La wave siguiente no arranca hasta que esta drena por completo
		wg.Wait()
	}
}

// runModule ejecuta un módulo individual con su retry policy y persiste cada
// transición del registro.
func (o *Orchestrator) runModule(
	ctx context.Context,
	job *domain.Job,
	pm registry.PlannedModule,
	rec *domain.ModuleExecutionRecord,
	report *domain.JobReport,
) {
	name := pm.Meta.Name
	rec.Version = pm.Meta.Version

	if err := rec.MarkRunning(); err != nil {
		o.logger.Warn("module record transition rejected", "module", name, "error", err.Error())
		return
	}
	o.persistRecord(ctx, job.ID, rec)
	o.notify(ports.NewModuleEvent(job.ID, name, domain.ModuleStatusPending.String(), domain.ModuleStatusRunning.String(), nil))

	retryable := resilience.NewRetryableModule(pm.Module, pm.Config, o.breakerFor(name), o.logger)
	retryable.OnAttempt = func(attempt int) {
		rec.Attempts = attempt
		o.persistRecord(ctx, job.ID, rec)
		if attempt > 1 {
			o.notify(ports.NewRetryEvent(job.ID, name, attempt))
		}
	}

	inv := domain.Invocation{
		Target:    job.Target,
		OutputDir: filepath.Join(o.outputDir, job.ID, name),
		Options:   pm.Config.Options,
		Execute:   job.Execute,
	}

	res, attempts, err := retryable.InvokeWithRetry(ctx, inv)
	rec.Attempts = attempts

	if err == nil {
		err = o.normalizer.Normalize(res)
	}

	if err != nil {
		if res != nil && o.normalizer.Normalize(res) != nil {
			// El resultado del último intento ni siquiera tiene forma: se
			// descarta y el registro conserva solo el detalle del error
			res = nil
		}
		if markErr := rec.MarkFailed(res, err.Error()); markErr != nil {
			o.logger.Warn("module record transition rejected", "module", name, "error", markErr.Error())
			return
		}
		o.persistRecord(ctx, job.ID, rec)
		o.notify(ports.NewModuleEvent(job.ID, name, domain.ModuleStatusRunning.String(), domain.ModuleStatusFailed.String(), err.Error()))
		o.logger.Warn("module failed",
			"job_id", job.ID,
			"module", name,
			"attempts", attempts,
			"error", err.Error(),
		)
		return
	}

	o.storeArtifacts(ctx, job.ID, name, res)
	if ref, ok := res.Raw.(string); ok {
		rec.RawRef = ref
	}

	if markErr := rec.MarkSucceeded(res); markErr != nil {
		o.logger.Warn("module record transition rejected", "module", name, "error", markErr.Error())
		return
	}
	o.persistRecord(ctx, job.ID, rec)

	report.AddResult(name, res)

	o.notify(ports.NewModuleEvent(job.ID, name, domain.ModuleStatusRunning.String(), domain.ModuleStatusSucceeded.String(), res.Summary))
	o.logger.Info("module succeeded",
		"job_id", job.ID,
		"module", name,
		"attempts", attempts,
		"artifacts", len(res.Artifacts),
		"duration_ms", res.Duration().Milliseconds(),
	)
}

// storeArtifacts pasa los archivos reportados por el módulo a través del sink
// y reemplaza los paths locales por locators. Un sink que falla degrada a
// conservar el path original; nunca tumba el módulo.
func (o *Orchestrator) storeArtifacts(ctx context.Context, jobID, module string, res *domain.Result) {
	if o.sink == nil || len(res.Artifacts) == 0 {
		return
	}
	for i, path := range res.Artifacts {
		locator, err := o.sink.StoreFile(ctx, jobID, module, path)
		if err != nil {
			o.logger.Warn("artifact sink failed",
				"module", module,
				"artifact", path,
				"error", err.Error(),
			)
			continue
		}
		res.Artifacts[i] = locator
	}
}

// skipModule cierra un registro como skipped y lo persiste.
func (o *Orchestrator) skipModule(
	ctx context.Context,
	job *domain.Job,
	rec *domain.ModuleExecutionRecord,
	reason domain.SkipReason,
	detail string,
) {
	if err := rec.MarkSkipped(reason); err != nil {
		return
	}
	o.persistRecord(ctx, job.ID, rec)
	o.notify(ports.NewModuleEvent(job.ID, rec.Module, domain.ModuleStatusPending.String(), domain.ModuleStatusSkipped.String(), string(reason)))
	o.logger.Info("module skipped",
		"job_id", job.ID,
		"module", rec.Module,
		"reason", reason,
		"detail", detail,
	)
}

// failedDependency retorna la primera dependencia declarada (dentro del job)
// que terminó en failed. Una dependencia skipped no propaga el skip: el
// módulo decide solo con los datos que tenga.
func (o *Orchestrator) failedDependency(meta ports.ModuleMetadata, records map[string]*domain.ModuleExecutionRecord) string {
	for _, dep := range meta.DependsOn {
		if rec, ok := records[dep]; ok && rec.Status == domain.ModuleStatusFailed {
			return dep
		}
	}
	return ""
}

// moduleConfigs deriva la configuración efectiva por módulo desde las opciones
// del job. Las claves reservadas timeout y retries ajustan la retry policy;
// el resto viaja opaco hasta el adapter.
func (o *Orchestrator) moduleConfigs(job *domain.Job) map[string]ports.ModuleConfig {
	configs := make(map[string]ports.ModuleConfig, len(job.Modules))
	for _, name := range job.Modules {
		meta, ok := o.registry.Metadata(name)
		if !ok {
			// Resolve reporta el módulo desconocido con mejor contexto
			continue
		}

		cfg := ports.DefaultModuleConfig()
		if meta.DefaultTimeout > 0 {
			cfg.Timeout = meta.DefaultTimeout
		}

		opts := job.ModuleOptions(name)
		cfg.Options = opts
		if raw, ok := opts["timeout"].(string); ok {
			if d, err := time.ParseDuration(raw); err == nil && d > 0 {
				cfg.Timeout = d
			}
		}
		switch v := opts["retries"].(type) {
		case int:
			cfg.Retries = v
		case float64:
			cfg.Retries = int(v)
		}

		configs[name] = cfg
	}
	return configs
}

// breakerFor retorna el circuit breaker del módulo, creándolo si no existe.
func (o *Orchestrator) breakerFor(name string) *resilience.CircuitBreaker {
	o.breakersMu.Lock()
	defer o.breakersMu.Unlock()

	cb, ok := o.breakers[name]
	if !ok {
		cb = resilience.NewCircuitBreaker(5, 60*time.Second, 3)
		o.breakers[name] = cb
	}
	return cb
}

// persistJob escribe el estado del job en el store. La persistencia es
// best-effort at-least-once: un store caído no aborta la ejecución en curso.
func (o *Orchestrator) persistJob(ctx context.Context, job *domain.Job) {
	if err := o.store.UpdateJobStatus(context.WithoutCancel(ctx), job.ID, job.Status, job.StartedAt, job.EndedAt); err != nil {
		o.logger.Warn("failed to persist job status",
			"job_id", job.ID,
			"status", job.Status,
			"error", err.Error(),
		)
	}
}

// persistRecord escribe el registro de un módulo en el store.
func (o *Orchestrator) persistRecord(ctx context.Context, jobID string, rec *domain.ModuleExecutionRecord) {
	if err := o.store.UpsertModuleRecord(context.WithoutCancel(ctx), jobID, rec); err != nil {
		o.logger.Warn("failed to persist module record",
			"job_id", jobID,
			"module", rec.Module,
			"error", err.Error(),
		)
	}
}

// closePlan cierra todos los módulos instanciados por el plan.
func (o *Orchestrator) closePlan(plan *registry.Plan) {
	for _, wave := range plan.Waves {
		for _, pm := range wave.Modules {
			if err := pm.Module.Close(); err != nil {
				o.logger.Warn("module close failed", "module", pm.Meta.Name, "error", err.Error())
			}
		}
	}
}

const observerQueueSize = 128

// startObservers abre una cola de eventos con un consumidor dedicado por
// observer. La cola serializa la entrega: cada observer ve el feed en el
// orden en que se emitió, sin que un observer lento frene al orchestrator.
func (o *Orchestrator) startObservers() {
	o.queues = make([]chan ports.Event, len(o.observers))
	for i, observer := range o.observers {
		ch := make(chan ports.Event, observerQueueSize)
		o.queues[i] = ch

		o.notifyWg.Add(1)
		go func(notifier ports.Notifier, ch <-chan ports.Event) {
			defer o.notifyWg.Done()
			for event := range ch {
				o.deliver(notifier, event)
			}
		}(observer, ch)
	}
}

// stopObservers cierra las colas y espera a que drenen por completo antes de
// retornar del job.
func (o *Orchestrator) stopObservers() {
	for _, ch := range o.queues {
		close(ch)
	}
	o.queues = nil
	o.notifyWg.Wait()
}

// notify encola el evento en la cola de cada observer. Nunca bloquea: con la
// cola llena el evento se descarta, el JobStore sigue siendo la fuente
// autoritativa del estado.
func (o *Orchestrator) notify(event ports.Event) {
	for _, ch := range o.queues {
		select {
		case ch <- event:
		default:
			o.logger.Warn("observer queue full, dropping event", "event_type", event.Type)
		}
	}
}

// deliver entrega un evento con timeout. Las colas viven fuera del context
// del job: los eventos finales deben entregarse incluso tras una cancelación.
func (o *Orchestrator) deliver(notifier ports.Notifier, event ports.Event) {
	const notificationTimeout = 5 * time.Second

	notifyCtx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- notifier.Notify(notifyCtx, event)
	}()

	select {
	case err := <-done:
		if err != nil {
			o.logger.Warn("notification failed", "error", err.Error())
		}
	case <-notifyCtx.Done():
		o.logger.Warn("notification timeout exceeded",
			"timeout", notificationTimeout,
			"event_type", event.Type,
		)
	}
}
