// internal/adapters/store/filestore.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"recondragon/internal/core/domain"
	"recondragon/internal/core/ports"
	"recondragon/internal/platform/errors"
	"recondragon/internal/platform/logx"
	"recondragon/internal/platform/validator"
)

// ErrJobNotFound indica que el job no existe en el store.
var ErrJobNotFound = errors.New("job not found")

// FileStore implementa ports.JobStore sobre el filesystem. Cada job vive en
// su propio directorio:
//
//	<root>/<job-id>/job.json
//	<root>/<job-id>/modules/<module>.json
//
// El upsert de un registro reescribe su archivo completo vía write-then-rename,
// así que es idempotente por clave (job, módulo) y tolera escritores
// concurrentes de módulos distintos. Un crash a mitad de job deja un árbol
// legible con el que inspeccionar o retomar la ejecución.
type FileStore struct {
	root   string
	logger logx.Logger

	// Serializa las escrituras de job.json; los registros de módulo no lo
	// necesitan porque cada módulo escribe un archivo distinto
	jobMu sync.Mutex
}

var _ ports.JobStore = (*FileStore)(nil)

// NewFileStore crea un FileStore con raíz en root.
func NewFileStore(root string, logger logx.Logger) (*FileStore, error) {
	if root == "" {
		return nil, errors.New("store root cannot be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create store root %s", root)
	}
	return &FileStore{
		root:   root,
		logger: logger.With("component", "filestore"),
	}, nil
}

// CreateJob persiste el registro inicial del job.
func (s *FileStore) CreateJob(ctx context.Context, job *domain.Job) error {
	dir := s.jobDir(job.ID)
	if err := os.MkdirAll(filepath.Join(dir, "modules"), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create job directory %s", dir)
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	return writeJSON(filepath.Join(dir, "job.json"), job)
}

// UpdateJobStatus actualiza estado y timestamps del job.
func (s *FileStore) UpdateJobStatus(ctx context.Context, jobID string, status domain.JobStatus, startedAt, endedAt *time.Time) error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	job, err := s.readJob(jobID)
	if err != nil {
		return err
	}
	job.Status = status
	job.StartedAt = startedAt
	job.EndedAt = endedAt

	return writeJSON(filepath.Join(s.jobDir(jobID), "job.json"), job)
}

// UpsertModuleRecord crea o reescribe el registro de un módulo.
func (s *FileStore) UpsertModuleRecord(ctx context.Context, jobID string, rec *domain.ModuleExecutionRecord) error {
	dir := filepath.Join(s.jobDir(jobID), "modules")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create modules directory for job %s", jobID)
	}
	name := validator.SanitizeFilename(rec.Module) + ".json"
	return writeJSON(filepath.Join(dir, name), rec)
}

// ReadJob recupera un job por ID.
func (s *FileStore) ReadJob(ctx context.Context, jobID string) (*domain.Job, error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	return s.readJob(jobID)
}

func (s *FileStore) readJob(jobID string) (*domain.Job, error) {
	data, err := os.ReadFile(filepath.Join(s.jobDir(jobID), "job.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrJobNotFound, "%s", jobID)
		}
		return nil, errors.Wrapf(err, "failed to read job %s", jobID)
	}

	var job domain.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, errors.Wrapf(err, "corrupt job file for %s", jobID)
	}
	return &job, nil
}

// ReadModuleRecords recupera los registros de módulo de un job, ordenados por
// nombre de módulo.
func (s *FileStore) ReadModuleRecords(ctx context.Context, jobID string) ([]*domain.ModuleExecutionRecord, error) {
	dir := filepath.Join(s.jobDir(jobID), "modules")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrJobNotFound, "%s", jobID)
		}
		return nil, errors.Wrapf(err, "failed to list module records for job %s", jobID)
	}

	records := make([]*domain.ModuleExecutionRecord, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read record %s", entry.Name())
		}
		var rec domain.ModuleExecutionRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, errors.Wrapf(err, "corrupt record file %s", entry.Name())
		}
		records = append(records, &rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Module < records[j].Module
	})
	return records, nil
}

// ListJobs retorna los IDs de todos los jobs persistidos.
func (s *FileStore) ListJobs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list jobs under %s", s.root)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Close libera el store. No hay conexión que cerrar: existe para cumplir el
// port y poder sustituir el backend por uno remoto.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) jobDir(jobID string) string {
	return filepath.Join(s.root, validator.SanitizeFilename(jobID))
}

// writeJSON escribe el valor con write-then-rename para que un crash nunca
// deje un archivo JSON truncado.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", path)
	}

	tmp := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "failed to replace %s", path)
	}
	return nil
}
