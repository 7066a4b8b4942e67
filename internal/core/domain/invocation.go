// internal/core/domain/invocation.go
package domain

// Invocation es la entrada de una invocación de módulo. Los adapters deben
// tratar Target como input no confiable: siempre se pasa como argumento
// posicional al tool declarado, nunca interpolado en un shell.
type Invocation struct {
	// Target objetivo a escanear
	Target string

	// OutputDir directorio donde el módulo escribe sus archivos
	OutputDir string

	// Options opciones específicas del módulo
	Options map[string]any

	// Execute false = dry-run: el módulo solo proyecta la acción planeada
	Execute bool
}

// Option retorna una opción tipada string con default.
func (inv Invocation) Option(key, def string) string {
	if v, ok := inv.Options[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

// OptionBool retorna una opción tipada bool con default.
func (inv Invocation) OptionBool(key string, def bool) bool {
	if v, ok := inv.Options[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// OptionInt retorna una opción numérica con default. Acepta int y float64
// (los valores que llegan de YAML/JSON decodifican como cualquiera de los dos).
func (inv Invocation) OptionInt(key string, def int) int {
	switch v := inv.Options[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}
