// internal/core/usecases/gate.go
package usecases

import (
	"fmt"

	"recondragon/internal/core/domain"
	"recondragon/internal/core/ports"
)

// GateDecision es el veredicto del execution gate para un módulo concreto.
type GateDecision struct {
	// Allowed indica si el módulo puede ejecutarse
	Allowed bool

	// Reason razón del skip cuando Allowed es false
	Reason domain.SkipReason

	// Detail explicación legible de la denegación
	Detail string
}

// allow retorna la decisión afirmativa.
func allow() GateDecision {
	return GateDecision{Allowed: true}
}

func deny(detail string) GateDecision {
	return GateDecision{
		Allowed: false,
		Reason:  domain.SkipReasonNotAuthorized,
		Detail:  detail,
	}
}

// EvaluateGate decide si un módulo puede ejecutarse dentro de un job. Es una
// función pura: mismo job y mismo descriptor producen siempre el mismo
// veredicto, lo que la hace trivial de auditar.
//
// Reglas:
//   - En dry-run ningún módulo toca el target, así que todo pasa.
//   - Los módulos read-only solo consultan datos públicos: siempre pasan.
//   - Un módulo active con ejecución real exige workspace autorizado Y
//     target dentro del scope declarado.
func EvaluateGate(job *domain.Job, meta ports.ModuleMetadata) GateDecision {
	if !job.Execute {
		return allow()
	}
	if !meta.Safety.RequiresAuthorization() {
		return allow()
	}

	if !job.Authorized {
		return deny(fmt.Sprintf("workspace %s has not authorized active modules", job.Workspace))
	}
	if !job.TargetInScope() {
		return deny(fmt.Sprintf("target %s is outside the authorized scope", job.Target))
	}

	return allow()
}
