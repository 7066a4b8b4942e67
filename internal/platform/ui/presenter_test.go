package ui

import (
	"context"
	"testing"
	"time"

	"github.com/pterm/pterm"

	"recondragon/internal/core/domain"
	"recondragon/internal/core/ports"
	"recondragon/internal/testutil"
)

func silencePterm(t *testing.T) {
	t.Helper()
	pterm.DisableOutput()
	t.Cleanup(pterm.EnableOutput)
}

func TestPresenter_ConsumesAllEventTypes(t *testing.T) {
	silencePterm(t)
	p := NewPresenter()
	ctx := context.Background()

	events := []ports.Event{
		ports.NewJobEvent("job-1", "queued", "running"),
		ports.NewModuleEvent("job-1", "nmap", "pending", "running", nil),
		ports.NewRetryEvent("job-1", "nmap", 2),
		ports.NewModuleEvent("job-1", "nmap", "running", "succeeded", map[string]any{"hosts": 1}),
		ports.NewModuleEvent("job-1", "nuclei", "pending", "skipped", "dependency_failed"),
		ports.NewModuleEvent("job-1", "masscan", "running", "failed", "tool io error"),
		ports.NewJobEvent("job-1", "running", "partial"),
	}

	for _, ev := range events {
		testutil.AssertNoError(t, p.Notify(ctx, ev), "notify never fails")
	}
	testutil.AssertNoError(t, p.Close(), "close")
}

func TestPresenter_TracksModuleDurations(t *testing.T) {
	silencePterm(t)
	p := NewPresenter()
	ctx := context.Background()

	start := ports.NewModuleEvent("job-1", "nmap", "pending", "running", nil)
	testutil.AssertNoError(t, p.Notify(ctx, start), "running event")
	testutil.AssertEqual(t, len(p.started), 1, "start tracked")

	done := ports.NewModuleEvent("job-1", "nmap", "running", "succeeded", nil)
	testutil.AssertNoError(t, p.Notify(ctx, done), "succeeded event")
	testutil.AssertEqual(t, len(p.started), 0, "start released on terminal transition")
}

func TestSummaryLine(t *testing.T) {
	testutil.AssertEqual(t, summaryLine(map[string]any{"hosts": 2, "open_ports": 5}), "hosts=2 open_ports=5", "known keys in stable order")
	testutil.AssertEqual(t, summaryLine(map[string]any{"weird": true}), "", "unknown keys omitted")
	testutil.AssertEqual(t, summaryLine(nil), "", "nil data")
	testutil.AssertEqual(t, summaryLine("not a map"), "", "wrong type")
}

func TestRecordDetail(t *testing.T) {
	now := time.Now().UTC()

	skipped := &domain.ModuleExecutionRecord{Status: domain.ModuleStatusSkipped, SkipReason: domain.SkipReasonNotAuthorized, EndedAt: &now}
	testutil.AssertEqual(t, recordDetail(skipped), string(domain.SkipReasonNotAuthorized), "skip reason shown")

	failed := &domain.ModuleExecutionRecord{Status: domain.ModuleStatusFailed, ErrorDetail: "boom"}
	testutil.AssertEqual(t, recordDetail(failed), "boom", "short error shown whole")

	long := &domain.ModuleExecutionRecord{Status: domain.ModuleStatusFailed, ErrorDetail: string(make([]byte, 100))}
	testutil.AssertEqual(t, len([]rune(recordDetail(long))), 61, "long error truncated")
}

func TestPresenter_ShowSummary(t *testing.T) {
	silencePterm(t)
	p := NewPresenter()

	job := domain.NewJob("acme", "example.com", []string{"nmap", "nuclei"})
	job.Status = domain.JobStatusPartial
	report := domain.NewJobReport(job)

	ok := domain.NewModuleExecutionRecord(job.ID, "nmap", "1.0.0")
	ok.Status = domain.ModuleStatusSucceeded
	skipped := domain.NewModuleExecutionRecord(job.ID, "nuclei", "1.0.0")
	skipped.Status = domain.ModuleStatusSkipped
	skipped.SkipReason = domain.SkipReasonDependencyFailed
	report.Records = append(report.Records, ok, skipped)

	// El render no debe entrar en pánico con registros mixtos
	p.ShowSummary(report)
}

func TestNoopNotifier(t *testing.T) {
	n := NoopNotifier{}
	testutil.AssertNoError(t, n.Notify(context.Background(), ports.Event{}), "notify")
	testutil.AssertNoError(t, n.Close(), "close")
}
