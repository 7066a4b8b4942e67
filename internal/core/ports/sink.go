// internal/core/ports/sink.go
package ports

import "context"

// ArtifactSink es el port hacia el almacén externo de artifacts. El locator
// retornado es un string opaco (path, object key...) que se registra en el
// Canonical Result; la recuperación queda fuera del core.
//
// Las implementaciones deben tolerar escrituras concurrentes siempre que la
// clave (job id, módulo, nombre) difiera.
type ArtifactSink interface {
	// Store persiste bytes y retorna su locator
	Store(ctx context.Context, jobID, module, name string, data []byte) (string, error)

	// StoreFile persiste un archivo ya escrito por el tool y retorna su locator
	StoreFile(ctx context.Context, jobID, module, path string) (string, error)
}
