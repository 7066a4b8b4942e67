// internal/core/usecases/normalizer.go
package usecases

import (
	"math"
	"strings"

	"recondragon/internal/core/domain"
	"recondragon/internal/platform/errors"
)

// Normalizer valida y canonicaliza los resultados que entregan los módulos
// antes de persistirlos. Un adapter con un parser roto no puede corromper el
// JobStore: todo lo que no cumpla la forma canónica se rechaza con
// ErrMalformedResult y el intento cuenta como fallo del módulo.
type Normalizer struct{}

// NewNormalizer crea un normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize valida el resultado in place. Los campos desconocidos del summary
// se preservan tal cual: el contrato fija un mínimo, no un máximo.
func (n *Normalizer) Normalize(res *domain.Result) error {
	if res == nil {
		return errors.Wrap(errors.ErrMalformedResult, "module returned nil result")
	}
	if res.Module == "" {
		return errors.Wrap(errors.ErrMalformedResult, "missing module name")
	}
	if res.Version == "" {
		return errors.Wrap(errors.ErrMalformedResult, "missing module version")
	}
	if res.Target == "" {
		return errors.Wrap(errors.ErrMalformedResult, "missing target")
	}
	if res.StartTime <= 0 {
		return errors.Wrap(errors.ErrMalformedResult, "missing start_time")
	}
	if res.EndTime < res.StartTime {
		return errors.Wrapf(errors.ErrMalformedResult, "end_time %f precedes start_time %f", res.EndTime, res.StartTime)
	}
	if res.Success && res.Summary == nil {
		return errors.Wrap(errors.ErrMalformedResult, "successful result without summary")
	}

	if res.Summary == nil {
		res.Summary = make(map[string]any)
	}
	if res.Artifacts == nil {
		res.Artifacts = []string{}
	}

	for key, value := range res.Summary {
		coerced, err := normalizeSummaryValue(key, value)
		if err != nil {
			return err
		}
		res.Summary[key] = coerced
	}

	return nil
}

// normalizeSummaryValue canonicaliza un valor del summary: los floats enteros
// (lo que producen los decoders JSON/YAML para cualquier número) se coercen a
// int, y los contadores no pueden ser negativos.
func normalizeSummaryValue(key string, value any) (any, error) {
	switch v := value.(type) {
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			value = int(v)
		}
	case float32:
		f := float64(v)
		if f == math.Trunc(f) {
			value = int(f)
		}
	case int64:
		value = int(v)
	}

	if isCountKey(key) {
		if iv, ok := value.(int); ok && iv < 0 {
			return nil, errors.Wrapf(errors.ErrMalformedResult, "summary key %s has negative count %d", key, iv)
		}
	}

	return value, nil
}

// countKeys son las claves de summary que representan cardinalidades.
var countKeys = map[string]struct{}{
	"hosts":      {},
	"ports":      {},
	"open_ports": {},
	"findings":   {},
	"subdomains": {},
	"alive":      {},
	"total":      {},
}

func isCountKey(key string) bool {
	if _, ok := countKeys[key]; ok {
		return true
	}
	return strings.HasSuffix(key, "_count")
}
