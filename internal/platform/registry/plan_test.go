package registry

import (
	"testing"

	"recondragon/internal/core/ports"
	"recondragon/internal/platform/errors"
	"recondragon/internal/testutil"
)

func mustRegister(t *testing.T, r *ModuleRegistry, name string, deps ...string) {
	t.Helper()
	testutil.AssertNoError(t, r.Register(name, stubFactory(name), stubMeta(name, deps...)), "register "+name)
}

func waveNames(p *Plan, index int) []string {
	names := make([]string, 0, len(p.Waves[index].Modules))
	for _, m := range p.Waves[index].Modules {
		names = append(names, m.Meta.Name)
	}
	return names
}

func TestResolve_SingleWave(t *testing.T) {
	r := newTestRegistry(t)
	mustRegister(t, r, "alpha")
	mustRegister(t, r, "beta")

	plan, err := r.Resolve([]string{"alpha", "beta"}, nil)
	testutil.AssertNoError(t, err, "resolve")
	testutil.AssertEqual(t, len(plan.Waves), 1, "independent modules share a wave")
	testutil.AssertStrSliceEqual(t, waveNames(plan, 0), []string{"alpha", "beta"}, "request order preserved")
}

func TestResolve_DependencyOrdersWaves(t *testing.T) {
	r := newTestRegistry(t)
	mustRegister(t, r, "discover")
	mustRegister(t, r, "scan", "discover")
	mustRegister(t, r, "exploit", "scan")

	// Orden de solicitud invertido a propósito
	plan, err := r.Resolve([]string{"exploit", "scan", "discover"}, nil)
	testutil.AssertNoError(t, err, "resolve")

	testutil.AssertEqual(t, len(plan.Waves), 3, "one wave per dependency level")
	testutil.AssertEqual(t, plan.WaveOf("discover"), 0, "root first")
	testutil.AssertEqual(t, plan.WaveOf("scan"), 1, "dependent second")
	testutil.AssertEqual(t, plan.WaveOf("exploit"), 2, "leaf last")
	testutil.AssertStrSliceEqual(t, plan.Names(), []string{"discover", "scan", "exploit"}, "plan order follows waves")
}

func TestResolve_DependencyOutsideRequestIgnored(t *testing.T) {
	r := newTestRegistry(t)
	mustRegister(t, r, "discover")
	mustRegister(t, r, "scan", "discover")

	// discover no solicitado: scan no tiene aristas dentro del conjunto
	plan, err := r.Resolve([]string{"scan"}, nil)
	testutil.AssertNoError(t, err, "resolve")
	testutil.AssertEqual(t, len(plan.Waves), 1, "single wave")
	testutil.AssertEqual(t, plan.WaveOf("scan"), 0, "runs immediately")
}

func TestResolve_DuplicatesCollapse(t *testing.T) {
	r := newTestRegistry(t)
	mustRegister(t, r, "alpha")

	plan, err := r.Resolve([]string{"alpha", "alpha", "alpha"}, nil)
	testutil.AssertNoError(t, err, "resolve")
	testutil.AssertEqual(t, plan.ModuleCount(), 1, "first occurrence kept")
}

func TestResolve_UnknownModule(t *testing.T) {
	r := newTestRegistry(t)
	mustRegister(t, r, "alpha")

	_, err := r.Resolve([]string{"alpha", "ghost"}, nil)
	testutil.AssertErrorIs(t, err, errors.ErrUnknownModule, "unknown module is fatal")
	testutil.AssertContains(t, err.Error(), "ghost", "error names the module")
}

func TestResolve_CycleDetected(t *testing.T) {
	r := newTestRegistry(t)
	mustRegister(t, r, "a", "b")
	mustRegister(t, r, "b", "a")

	_, err := r.Resolve([]string{"a", "b"}, nil)
	testutil.AssertErrorIs(t, err, errors.ErrCyclicDependency, "cycle is fatal")
}

func TestResolve_EmptyRequest(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Resolve(nil, nil)
	testutil.AssertError(t, err, "empty request rejected")
}

func TestResolve_ConfigDefaults(t *testing.T) {
	r := newTestRegistry(t)
	meta := stubMeta("alpha")
	meta.DefaultTimeout = ports.DefaultModuleConfig().Timeout / 2
	testutil.AssertNoError(t, r.Register("alpha", stubFactory("alpha"), meta), "register")

	plan, err := r.Resolve([]string{"alpha"}, nil)
	testutil.AssertNoError(t, err, "resolve")

	pm := plan.Waves[0].Modules[0]
	testutil.AssertEqual(t, pm.Config.Timeout, meta.DefaultTimeout, "metadata timeout applied when no config given")
	testutil.AssertTrue(t, pm.Config.Enabled, "defaults enabled")
}

func TestResolve_ExplicitConfigWins(t *testing.T) {
	r := newTestRegistry(t)
	mustRegister(t, r, "alpha")

	cfg := ports.DefaultModuleConfig()
	cfg.Retries = 7
	plan, err := r.Resolve([]string{"alpha"}, map[string]ports.ModuleConfig{"alpha": cfg})
	testutil.AssertNoError(t, err, "resolve")
	testutil.AssertEqual(t, plan.Waves[0].Modules[0].Config.Retries, 7, "explicit config kept verbatim")
}

func TestResolve_TieBreakWithinWave(t *testing.T) {
	r := newTestRegistry(t)
	mustRegister(t, r, "root")
	mustRegister(t, r, "b", "root")
	mustRegister(t, r, "a", "root")

	plan, err := r.Resolve([]string{"root", "b", "a"}, nil)
	testutil.AssertNoError(t, err, "resolve")
	testutil.AssertStrSliceEqual(t, waveNames(plan, 1), []string{"b", "a"}, "request order breaks the tie")
}
