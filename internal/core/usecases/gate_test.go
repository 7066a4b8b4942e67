package usecases

import (
	"testing"

	"recondragon/internal/core/domain"
	"recondragon/internal/testutil"
)

func TestEvaluateGate(t *testing.T) {
	activeMeta := testutil.NewTestMetadata("nmap", domain.SafetyActive)
	readOnlyMeta := testutil.NewTestMetadata("subfinder", domain.SafetyReadOnly)

	t.Run("dry-run always passes", func(t *testing.T) {
		job := testutil.NewDryRunJob("example.com", "nmap")

		decision := EvaluateGate(job, activeMeta)
		testutil.AssertTrue(t, decision.Allowed, "dry-run bypasses authorization")
	})

	t.Run("read-only modules always pass", func(t *testing.T) {
		job := testutil.NewTestJob("example.com", "subfinder")
		job.Authorized = false
		job.Scope = nil

		decision := EvaluateGate(job, readOnlyMeta)
		testutil.AssertTrue(t, decision.Allowed, "read-only needs no authorization")
	})

	t.Run("active module with authorization and scope passes", func(t *testing.T) {
		job := testutil.NewTestJob("example.com", "nmap")

		decision := EvaluateGate(job, activeMeta)
		testutil.AssertTrue(t, decision.Allowed, "authorized in-scope execution passes")
	})

	t.Run("active module without authorization is denied", func(t *testing.T) {
		job := testutil.NewTestJob("example.com", "nmap")
		job.Authorized = false

		decision := EvaluateGate(job, activeMeta)
		testutil.AssertFalse(t, decision.Allowed, "unauthorized workspace denied")
		testutil.AssertEqual(t, decision.Reason, domain.SkipReasonNotAuthorized, "reason")
		testutil.AssertContains(t, decision.Detail, "not authorized", "detail mentions authorization")
	})

	t.Run("active module with target out of scope is denied", func(t *testing.T) {
		job := testutil.NewTestJob("example.com", "nmap")
		job.Scope = []string{"*.other.org"}

		decision := EvaluateGate(job, activeMeta)
		testutil.AssertFalse(t, decision.Allowed, "out of scope denied")
		testutil.AssertEqual(t, decision.Reason, domain.SkipReasonNotAuthorized, "reason")
		testutil.AssertContains(t, decision.Detail, "scope", "detail mentions scope")
	})

	t.Run("wildcard scope admits subdomains", func(t *testing.T) {
		job := testutil.NewTestJob("api.example.com", "nmap")
		job.Scope = []string{"*.example.com"}

		decision := EvaluateGate(job, activeMeta)
		testutil.AssertTrue(t, decision.Allowed, "wildcard scope matches subdomain")
	})

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		job := testutil.NewTestJob("example.com", "nmap")
		job.Authorized = false

		first := EvaluateGate(job, activeMeta)
		second := EvaluateGate(job, activeMeta)
		testutil.AssertEqual(t, first.Allowed, second.Allowed, "same verdict")
		testutil.AssertEqual(t, first.Reason, second.Reason, "same reason")
	})
}
