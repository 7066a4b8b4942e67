// internal/platform/resilience/retry.go
package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"recondragon/internal/core/domain"
	"recondragon/internal/core/ports"
	"recondragon/internal/platform/errors"
	"recondragon/internal/platform/logx"
)

// maxBackoff acota el backoff exponencial para que un módulo con muchos
// reintentos no duerma minutos enteros.
const maxBackoff = 60 * time.Second

// RetryableModule envuelve un Module con la retry policy: reintentos ante
// errores transitorios, backoff exponencial con jitter, timeout por intento y
// circuit breaker opcional. Los errores permanentes (config inválida, tool
// ausente, autorización, resultado malformado) cortan el ciclo de inmediato.
//
// Cada intento produce su propio Result; el de la última tentativa es el que
// se retorna, tanto en éxito como en fallo.
type RetryableModule struct {
	module         ports.Module
	maxAttempts    int
	attemptTimeout time.Duration
	backoffBase    time.Duration
	backoffMult    float64
	jitter         bool
	breaker        *CircuitBreaker
	logger         logx.Logger

	// OnAttempt se invoca antes de cada intento (attempt empieza en 1).
	// El Orchestrator lo usa para persistir el contador y emitir eventos.
	OnAttempt func(attempt int)
}

// NewRetryableModule crea el wrapper con la configuración efectiva del módulo.
// cfg.Retries es el número máximo de intentos (mínimo 1); cfg.Timeout aplica
// por intento, no al ciclo completo.
func NewRetryableModule(module ports.Module, cfg ports.ModuleConfig, breaker *CircuitBreaker, logger logx.Logger) *RetryableModule {
	maxAttempts := cfg.Retries
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &RetryableModule{
		module:         module,
		maxAttempts:    maxAttempts,
		attemptTimeout: cfg.Timeout,
		backoffBase:    1 * time.Second,
		backoffMult:    2.0,
		jitter:         true,
		breaker:        breaker,
		logger:         logger.With("component", "retryable-module", "module", module.Name()),
	}
}

// Name retorna el nombre del módulo subyacente.
func (r *RetryableModule) Name() string {
	return r.module.Name()
}

// Version retorna la versión del módulo subyacente.
func (r *RetryableModule) Version() string {
	return r.module.Version()
}

// Invoke implementa ports.Module delegando en InvokeWithRetry.
func (r *RetryableModule) Invoke(ctx context.Context, inv domain.Invocation) (*domain.Result, error) {
	res, _, err := r.InvokeWithRetry(ctx, inv)
	return res, err
}

// InvokeWithRetry ejecuta el módulo con la retry policy completa y retorna
// además el número de intentos realizados.
func (r *RetryableModule) InvokeWithRetry(ctx context.Context, inv domain.Invocation) (*domain.Result, int, error) {
	if r.breaker != nil && !r.breaker.Allow() {
		r.logger.Warn("circuit breaker open, rejecting invocation")
		return nil, 0, errors.Wrapf(ErrCircuitOpen, "module %s", r.module.Name())
	}

	var lastRes *domain.Result
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if r.breaker != nil {
				r.breaker.RecordFailure()
			}
			return lastRes, attempt - 1, errors.Wrapf(err, "cancelled before attempt %d", attempt)
		}

		if r.OnAttempt != nil {
			r.OnAttempt(attempt)
		}
		if attempt > 1 {
			r.logger.Info("retrying module",
				"attempt", attempt,
				"max_attempts", r.maxAttempts,
			)
		}

		res, err := r.invokeOnce(ctx, inv)
		if err == nil {
			if r.breaker != nil {
				r.breaker.RecordSuccess()
			}
			if attempt > 1 {
				r.logger.Info("module succeeded after retry", "attempts", attempt)
			}
			return res, attempt, nil
		}

		lastRes, lastErr = res, err
		r.logger.Warn("module attempt failed",
			"attempt", attempt,
			"error", err.Error(),
		)

		if !errors.Transient(err) {
			r.logger.Debug("permanent error, not retrying")
			if r.breaker != nil {
				r.breaker.RecordFailure()
			}
			return lastRes, attempt, lastErr
		}

		if attempt == r.maxAttempts {
			break
		}

		backoff := r.backoffFor(attempt)
		r.logger.Debug("backing off before retry", "delay_ms", backoff.Milliseconds())

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			if r.breaker != nil {
				r.breaker.RecordFailure()
			}
			return lastRes, attempt, errors.Wrapf(ctx.Err(), "cancelled during backoff after %d attempts", attempt)
		}
	}

	if r.breaker != nil {
		r.breaker.RecordFailure()
	}
	r.logger.Warn("module failed after all attempts",
		"attempts", r.maxAttempts,
		"last_error", lastErr.Error(),
	)

	return lastRes, r.maxAttempts, errors.Wrapf(lastErr, "module %s failed after %d attempts", r.module.Name(), r.maxAttempts)
}

// invokeOnce ejecuta un intento con su propio deadline. El deadline de un
// intento agotado no contamina al siguiente.
func (r *RetryableModule) invokeOnce(ctx context.Context, inv domain.Invocation) (*domain.Result, error) {
	attemptCtx := ctx
	if r.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, r.attemptTimeout)
		defer cancel()
	}

	res, err := r.module.Invoke(attemptCtx, inv)
	if err != nil && attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return res, errors.Wrapf(errors.ErrTimeout, "attempt exceeded %s: %v", r.attemptTimeout, err)
	}
	return res, err
}

// Close cierra el módulo subyacente.
func (r *RetryableModule) Close() error {
	return r.module.Close()
}

// backoffFor calcula el delay tras el intento attempt (1-based):
// base * mult^(attempt-1), con jitter aditivo de hasta el 50%.
func (r *RetryableModule) backoffFor(attempt int) time.Duration {
	backoff := time.Duration(float64(r.backoffBase) * math.Pow(r.backoffMult, float64(attempt-1)))
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	if r.jitter {
		backoff += time.Duration(rand.Int63n(int64(backoff)/2 + 1))
	}
	return backoff
}

// Breaker retorna el circuit breaker (útil para testing/monitoring).
func (r *RetryableModule) Breaker() *CircuitBreaker {
	return r.breaker
}
