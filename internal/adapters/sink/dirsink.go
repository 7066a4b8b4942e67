// internal/adapters/sink/dirsink.go
package sink

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"recondragon/internal/core/ports"
	"recondragon/internal/platform/errors"
	"recondragon/internal/platform/logx"
	"recondragon/internal/platform/validator"
)

// DirSink implementa ports.ArtifactSink sobre un directorio local. El locator
// es el path relativo a la raíz del sink:
//
//	<job-id>/<module>/<nombre de archivo>
//
// Módulos distintos del mismo job escriben en subdirectorios distintos, así
// que las escrituras concurrentes nunca colisionan.
type DirSink struct {
	root   string
	logger logx.Logger
}

var _ ports.ArtifactSink = (*DirSink)(nil)

// NewDirSink crea un DirSink con raíz en root.
func NewDirSink(root string, logger logx.Logger) (*DirSink, error) {
	if root == "" {
		return nil, errors.New("sink root cannot be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create sink root %s", root)
	}
	return &DirSink{
		root:   root,
		logger: logger.With("component", "dirsink"),
	}, nil
}

// Store persiste bytes bajo el sink y retorna su locator.
func (s *DirSink) Store(ctx context.Context, jobID, module, name string, data []byte) (string, error) {
	locator, path, err := s.prepare(jobID, module, name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write artifact %s", locator)
	}

	s.logger.Debug("artifact stored", "locator", locator, "bytes", len(data))
	return locator, nil
}

// StoreFile copia un archivo ya escrito por el tool dentro del sink y retorna
// su locator. El archivo original queda intacto.
func (s *DirSink) StoreFile(ctx context.Context, jobID, module, path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open artifact %s", path)
	}
	defer src.Close()

	locator, dstPath, err := s.prepare(jobID, module, filepath.Base(path))
	if err != nil {
		return "", err
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create artifact %s", locator)
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)
	if err != nil {
		return "", errors.Wrapf(err, "failed to copy artifact %s", locator)
	}

	s.logger.Debug("artifact stored", "locator", locator, "bytes", written)
	return locator, nil
}

// Root retorna la raíz del sink.
func (s *DirSink) Root() string {
	return s.root
}

// Resolve convierte un locator en el path absoluto del artifact.
func (s *DirSink) Resolve(locator string) string {
	return filepath.Join(s.root, filepath.FromSlash(locator))
}

// prepare valida la clave, crea el directorio del módulo y retorna el par
// (locator, path absoluto).
func (s *DirSink) prepare(jobID, module, name string) (string, string, error) {
	if jobID == "" || module == "" || name == "" {
		return "", "", errors.New("artifact key requires job id, module and name")
	}

	jobPart := validator.SanitizeFilename(jobID)
	modulePart := validator.SanitizeFilename(module)
	namePart := sanitizeArtifactName(name)

	dir := filepath.Join(s.root, jobPart, modulePart)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", errors.Wrapf(err, "failed to create artifact directory %s", dir)
	}

	locator := jobPart + "/" + modulePart + "/" + namePart
	return locator, filepath.Join(dir, namePart), nil
}

// sanitizeArtifactName limpia el nombre de archivo de un artifact preservando
// la extensión, a diferencia del sanitizado de targets.
func sanitizeArtifactName(name string) string {
	name = strings.ReplaceAll(name, "..", "_")
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' || r == '.' {
			return r
		}
		return '_'
	}, name)
}
