// internal/platform/resilience/circuit_breaker.go
package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// State representa el estado del circuit breaker.
type State int

const (
	StateClosed   State = iota // Operación normal
	StateOpen                  // Fallando, rechaza invocaciones
	StateHalfOpen              // Probando si el tool se recuperó
)

// CircuitBreaker implementa el patrón Circuit Breaker para que un tool caído
// (API de enrichment sin cuota, binario que segfaultea) no queme el retry
// budget de cada job que lo solicita.
type CircuitBreaker struct {
	mu              sync.RWMutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	lastSuccessTime time.Time

	failureThreshold int           // Fallos para abrir el circuito
	timeout          time.Duration // Espera antes de pasar a half-open
	halfOpenMax      int           // Invocaciones máximas en half-open
}

// NewCircuitBreaker crea un nuevo circuit breaker.
func NewCircuitBreaker(failureThreshold int, timeout time.Duration, halfOpenMax int) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if halfOpenMax <= 0 {
		halfOpenMax = 3
	}

	return &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: failureThreshold,
		timeout:          timeout,
		halfOpenMax:      halfOpenMax,
	}
}

// Allow verifica si una invocación puede pasar.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true

	case StateOpen:
		if time.Since(cb.lastFailureTime) > cb.timeout {
			cb.state = StateHalfOpen
			cb.successCount = 0
			cb.failureCount = 0
			return true
		}
		return false

	case StateHalfOpen:
		return cb.successCount+cb.failureCount < cb.halfOpenMax

	default:
		return false
	}
}

// RecordSuccess registra una invocación exitosa.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastSuccessTime = time.Now()

	switch cb.state {
	case StateClosed:
		cb.failureCount = 0

	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.halfOpenMax {
			cb.state = StateClosed
			cb.failureCount = 0
			cb.successCount = 0
		}
	}
}

// RecordFailure registra una invocación fallida.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailureTime = time.Now()
	cb.failureCount++

	switch cb.state {
	case StateClosed:
		if cb.failureCount >= cb.failureThreshold {
			cb.state = StateOpen
		}

	case StateHalfOpen:
		// Un fallo en half-open reabre el circuito de inmediato
		cb.state = StateOpen
		cb.successCount = 0
		cb.failureCount = 0
	}
}

// State retorna el estado actual del circuit breaker.
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Reset resetea el circuit breaker al estado cerrado.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failureCount = 0
	cb.successCount = 0
}

// Stats retorna estadísticas del circuit breaker.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return CircuitBreakerStats{
		State:           cb.state,
		FailureCount:    cb.failureCount,
		SuccessCount:    cb.successCount,
		LastFailureTime: cb.lastFailureTime,
		LastSuccessTime: cb.lastSuccessTime,
	}
}

// CircuitBreakerStats contiene estadísticas del circuit breaker.
type CircuitBreakerStats struct {
	State           State
	FailureCount    int
	SuccessCount    int
	LastFailureTime time.Time
	LastSuccessTime time.Time
}

// String retorna una representación legible del estado.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
