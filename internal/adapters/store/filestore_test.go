package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"recondragon/internal/core/domain"
	"recondragon/internal/platform/logx"
	"recondragon/internal/testutil"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir(), logx.NewSilent())
	testutil.AssertNoError(t, err, "create store")
	return s
}

func TestFileStore_CreateAndReadJob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	job := testutil.NewTestJob("example.com", "nmap")

	testutil.AssertNoError(t, s.CreateJob(ctx, job), "create job")

	read, err := s.ReadJob(ctx, job.ID)
	testutil.AssertNoError(t, err, "read job")
	testutil.AssertEqual(t, read.ID, job.ID, "id")
	testutil.AssertEqual(t, read.Target, "example.com", "target")
	testutil.AssertEqual(t, read.Status, domain.JobStatusQueued, "status")
}

func TestFileStore_ReadMissingJob(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ReadJob(context.Background(), "missing-id")
	testutil.AssertErrorIs(t, err, ErrJobNotFound, "missing job")
}

func TestFileStore_UpdateJobStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	job := testutil.NewTestJob("example.com", "nmap")
	testutil.AssertNoError(t, s.CreateJob(ctx, job), "create job")

	testutil.AssertNoError(t, job.MarkRunning(), "mark running")
	testutil.AssertNoError(t, s.UpdateJobStatus(ctx, job.ID, job.Status, job.StartedAt, job.EndedAt), "persist running")

	read, err := s.ReadJob(ctx, job.ID)
	testutil.AssertNoError(t, err, "read job")
	testutil.AssertEqual(t, read.Status, domain.JobStatusRunning, "status updated")
	testutil.AssertNotNil(t, read.StartedAt, "started_at persisted")
}

func TestFileStore_UpsertModuleRecordIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	job := testutil.NewTestJob("example.com", "nmap")
	testutil.AssertNoError(t, s.CreateJob(ctx, job), "create job")

	rec := domain.NewModuleExecutionRecord(job.ID, "nmap", "1.0.0")
	testutil.AssertNoError(t, s.UpsertModuleRecord(ctx, job.ID, rec), "first upsert")

	testutil.AssertNoError(t, rec.MarkRunning(), "mark running")
	rec.Attempts = 2
	testutil.AssertNoError(t, s.UpsertModuleRecord(ctx, job.ID, rec), "second upsert")

	records, err := s.ReadModuleRecords(ctx, job.ID)
	testutil.AssertNoError(t, err, "read records")
	testutil.AssertEqual(t, len(records), 1, "rewrite, not duplicate")
	testutil.AssertEqual(t, records[0].Status, domain.ModuleStatusRunning, "latest state wins")
	testutil.AssertEqual(t, records[0].Attempts, 2, "attempts persisted")
}

func TestFileStore_ConcurrentUpsertsDistinctModules(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	job := testutil.NewTestJob("example.com", "nmap")
	testutil.AssertNoError(t, s.CreateJob(ctx, job), "create job")

	modules := []string{"nmap", "masscan", "nuclei", "subfinder", "httpx_probe"}
	var wg sync.WaitGroup
	for _, name := range modules {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			rec := domain.NewModuleExecutionRecord(job.ID, name, "1.0.0")
			for i := 0; i < 10; i++ {
				rec.Attempts = i
				if err := s.UpsertModuleRecord(ctx, job.ID, rec); err != nil {
					t.Errorf("upsert %s: %v", name, err)
					return
				}
			}
		}(name)
	}
	wg.Wait()

	records, err := s.ReadModuleRecords(ctx, job.ID)
	testutil.AssertNoError(t, err, "read records")
	testutil.AssertEqual(t, len(records), len(modules), "one record per module")
}

func TestFileStore_RecordsSortedByModule(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	job := testutil.NewTestJob("example.com", "nmap")
	testutil.AssertNoError(t, s.CreateJob(ctx, job), "create job")

	for _, name := range []string{"zmap", "nmap", "amass"} {
		rec := domain.NewModuleExecutionRecord(job.ID, name, "1.0.0")
		testutil.AssertNoError(t, s.UpsertModuleRecord(ctx, job.ID, rec), "upsert "+name)
	}

	records, err := s.ReadModuleRecords(ctx, job.ID)
	testutil.AssertNoError(t, err, "read records")
	names := make([]string, 0, len(records))
	for _, rec := range records {
		names = append(names, rec.Module)
	}
	testutil.AssertStrSliceEqual(t, names, []string{"amass", "nmap", "zmap"}, "sorted order")
}

func TestFileStore_ListJobs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := testutil.NewTestJob("example.com", "nmap")
	second := testutil.NewTestJob("example.org", "nmap")
	testutil.AssertNoError(t, s.CreateJob(ctx, first), "create first")
	testutil.AssertNoError(t, s.CreateJob(ctx, second), "create second")

	ids, err := s.ListJobs(ctx)
	testutil.AssertNoError(t, err, "list jobs")
	testutil.AssertEqual(t, len(ids), 2, "both jobs listed")
}

func TestFileStore_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, logx.NewSilent())
	testutil.AssertNoError(t, err, "create store")

	ctx := context.Background()
	job := testutil.NewTestJob("example.com", "nmap")
	testutil.AssertNoError(t, s.CreateJob(ctx, job), "create job")

	rec := domain.NewModuleExecutionRecord(job.ID, "nmap", "1.0.0")
	testutil.AssertNoError(t, s.UpsertModuleRecord(ctx, job.ID, rec), "upsert")

	var leftovers []string
	filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && filepath.Ext(path) != ".json" {
			leftovers = append(leftovers, path)
		}
		return nil
	})
	testutil.AssertEqual(t, len(leftovers), 0, "only json files remain")
}

func TestNewFileStore_RejectsEmptyRoot(t *testing.T) {
	_, err := NewFileStore("", logx.NewSilent())
	testutil.AssertError(t, err, "empty root rejected")
}
