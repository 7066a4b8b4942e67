package domain_test

import (
	"sync"
	"testing"

	. "recondragon/internal/core/domain"
	"recondragon/internal/testutil"
)

func reportWith(t *testing.T, statuses map[string]ModuleStatus) *JobReport {
	t.Helper()
	job := NewJob("acme", "example.com", []string{"a"})
	report := NewJobReport(job)
	for name, status := range statuses {
		rec := NewModuleExecutionRecord(job.ID, name, "1.0.0")
		rec.Status = status
		report.Records = append(report.Records, rec)
	}
	return report
}

func TestReport_FinalJobStatus(t *testing.T) {
	cases := []struct {
		name     string
		statuses map[string]ModuleStatus
		want     JobStatus
	}{
		{"all succeeded", map[string]ModuleStatus{"a": ModuleStatusSucceeded, "b": ModuleStatusSucceeded}, JobStatusCompleted},
		{"none succeeded", map[string]ModuleStatus{"a": ModuleStatusFailed, "b": ModuleStatusSkipped}, JobStatusFailed},
		{"mixed", map[string]ModuleStatus{"a": ModuleStatusSucceeded, "b": ModuleStatusFailed}, JobStatusPartial},
		{"succeeded and skipped", map[string]ModuleStatus{"a": ModuleStatusSucceeded, "b": ModuleStatusSkipped}, JobStatusPartial},
		{"empty", map[string]ModuleStatus{}, JobStatusFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report := reportWith(t, tc.statuses)
			testutil.AssertEqual(t, report.FinalJobStatus(), tc.want, "derived status")
		})
	}
}

func TestReport_Finished(t *testing.T) {
	report := reportWith(t, map[string]ModuleStatus{"a": ModuleStatusSucceeded, "b": ModuleStatusRunning})
	testutil.AssertFalse(t, report.Finished(), "running record pending")

	report.Records[1].Status = ModuleStatusFailed
	testutil.AssertTrue(t, report.Finished(), "all terminal")
}

func TestReport_RecordLookup(t *testing.T) {
	report := reportWith(t, map[string]ModuleStatus{"nmap": ModuleStatusSucceeded})

	testutil.AssertNotNil(t, report.Record("nmap"), "existing record")
	testutil.AssertTrue(t, report.Record("ghost") == nil, "missing record")
}

func TestReport_ConcurrentResults(t *testing.T) {
	report := reportWith(t, map[string]ModuleStatus{})

	var wg sync.WaitGroup
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			report.AddResult(name, NewResult(name, "1.0.0", "example.com").Finish(true))
		}(name)
	}
	wg.Wait()

	for _, name := range names {
		testutil.AssertNotNil(t, report.Result(name), "result stored for "+name)
	}
	testutil.AssertTrue(t, report.Result("ghost") == nil, "missing result is nil")
}

func TestReport_Succeeded(t *testing.T) {
	report := reportWith(t, map[string]ModuleStatus{
		"a": ModuleStatusSucceeded,
		"b": ModuleStatusSucceeded,
		"c": ModuleStatusFailed,
	})
	testutil.AssertEqual(t, report.Succeeded(), 2, "succeeded count")
}
