// internal/platform/registry/plan.go
package registry

import (
	"sort"

	"recondragon/internal/core/ports"
	"recondragon/internal/platform/errors"
)

// PlannedModule es un módulo instanciado y listo para ejecutar dentro de un plan.
type PlannedModule struct {
	// Meta descriptor del módulo
	Meta ports.ModuleMetadata

	// Module instancia construida por la factory
	Module ports.Module

	// Config configuración efectiva del módulo
	Config ports.ModuleConfig
}

// Wave agrupa módulos sin relación de dependencia entre sí: pueden ejecutarse
// concurrentemente. Las waves se ejecutan estrictamente en secuencia.
type Wave struct {
	// Index posición de la wave en el plan (0 = primera)
	Index int

	// Modules módulos de la wave, en orden de admisión
	Modules []PlannedModule
}

// Plan es el resultado de resolver un conjunto de módulos solicitados:
// una partición en waves consistente con el grafo de dependencias.
type Plan struct {
	Waves []Wave
}

// ModuleCount retorna el número total de módulos planificados.
func (p *Plan) ModuleCount() int {
	n := 0
	for _, w := range p.Waves {
		n += len(w.Modules)
	}
	return n
}

// WaveOf retorna el índice de wave de un módulo (-1 si no está en el plan).
func (p *Plan) WaveOf(name string) int {
	for _, w := range p.Waves {
		for _, m := range w.Modules {
			if m.Meta.Name == name {
				return w.Index
			}
		}
	}
	return -1
}

// Names retorna los nombres de los módulos en orden de plan.
func (p *Plan) Names() []string {
	names := make([]string, 0, p.ModuleCount())
	for _, w := range p.Waves {
		for _, m := range w.Modules {
			names = append(names, m.Meta.Name)
		}
	}
	return names
}

// Resolve valida los módulos solicitados y computa el plan de ejecución:
// un topological sort por niveles (algoritmo de Kahn con BFS) sobre el
// subgrafo de dependencias inducido por el conjunto solicitado. Una
// dependencia declarada hacia un módulo no solicitado no genera arista.
//
// Desempate estable dentro de cada wave: orden original de la solicitud,
// luego nombre lexicográfico. Nombres duplicados se colapsan conservando la
// primera aparición.
//
// El invariante estático dice que el grafo completo es acíclico, pero el
// registry puede mutar en runtime por carga de plugins, así que el ciclo se
// re-verifica defensivamente aquí y falla con ErrCyclicDependency.
func (r *ModuleRegistry) Resolve(requested []string, configs map[string]ports.ModuleConfig) (*Plan, error) {
	// Colapsar duplicados conservando orden de solicitud
	order := make(map[string]int, len(requested))
	names := make([]string, 0, len(requested))
	for _, name := range requested {
		if _, seen := order[name]; seen {
			continue
		}
		order[name] = len(names)
		names = append(names, name)
	}

	if len(names) == 0 {
		return nil, errors.New("no modules requested")
	}

	// Validar que todos existan y capturar metadata
	metas := make(map[string]ports.ModuleMetadata, len(names))
	for _, name := range names {
		meta, ok := r.Metadata(name)
		if !ok {
			return nil, errors.Wrapf(errors.ErrUnknownModule, "%s", name)
		}
		metas[name] = meta
	}

	// Aristas dep -> dependiente, restringidas al conjunto solicitado
	dependents := make(map[string][]string, len(names))
	inDegree := make(map[string]int, len(names))
	for _, name := range names {
		inDegree[name] = 0
	}
	for _, name := range names {
		for _, dep := range metas[name].DependsOn {
			if _, inSet := order[dep]; !inSet || dep == name {
				continue
			}
			dependents[dep] = append(dependents[dep], name)
			inDegree[name]++
		}
	}

	// Kahn por niveles: cada nivel es una wave
	ready := make([]string, 0, len(names))
	for _, name := range names {
		if inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	plan := &Plan{}
	processed := 0

	for len(ready) > 0 {
		sortStable(ready, order)

		wave := Wave{Index: len(plan.Waves), Modules: make([]PlannedModule, 0, len(ready))}
		next := make([]string, 0)

		for _, name := range ready {
			cfg, ok := configs[name]
			if !ok {
				cfg = ports.DefaultModuleConfig()
				if metas[name].DefaultTimeout > 0 {
					cfg.Timeout = metas[name].DefaultTimeout
				}
			}

			module, err := r.build(name, cfg)
			if err != nil {
				return nil, err
			}

			wave.Modules = append(wave.Modules, PlannedModule{
				Meta:   metas[name],
				Module: module,
				Config: cfg,
			})
			processed++

			for _, dependent := range dependents[name] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}

		plan.Waves = append(plan.Waves, wave)
		ready = next
	}

	if processed != len(names) {
		stuck := make([]string, 0)
		for _, name := range names {
			if inDegree[name] > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, errors.Wrapf(errors.ErrCyclicDependency, "involving modules %v", stuck)
	}

	r.logger.Debug("plan resolved",
		"modules", processed,
		"waves", len(plan.Waves),
	)

	return plan, nil
}

// sortStable ordena nombres por (índice de solicitud, nombre).
func sortStable(names []string, order map[string]int) {
	sort.Slice(names, func(i, j int) bool {
		oi, oj := order[names[i]], order[names[j]]
		if oi != oj {
			return oi < oj
		}
		return names[i] < names[j]
	})
}
