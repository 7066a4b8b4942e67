// internal/platform/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Config agrupa la configuración del proceso. Precedencia: defaults -> ENV
// (RECONDRAGON_*) -> flags.
type Config struct {
	// Job
	Target     string
	Workspace  string
	Modules    []string
	Execute    bool
	Authorized bool
	Scope      []string
	JobFile    string

	// Execution
	Workers  int
	TimeoutS int // segundos (0 = sin timeout de job)

	// IO
	OutputDir string
	StoreDir  string

	// UI / logging
	Quiet        bool
	LogLevel     string
	PrintVersion bool
}

// DefaultConfig retorna la configuración por defecto.
func DefaultConfig() Config {
	return Config{
		Workspace:  "default",
		Modules:    []string{},
		Execute:    false,
		Authorized: false,

		Workers:  4,
		TimeoutS: 0,

		OutputDir: "recondragon_out",
		StoreDir:  "recondragon_store",

		LogLevel: "info",
	}
}

// Load inicializa la configuración: ENV sobre defaults, luego flags (los flags
// tienen prioridad). args son los argumentos de CLI sin el nombre del binario.
func Load(args []string) (Config, error) {
	cfg := DefaultConfig()

	loadFromEnv(&cfg)

	if err := loadFromFlags(&cfg, args); err != nil {
		return cfg, err
	}

	normalize(&cfg)
	return cfg, nil
}

// loadFromEnv carga configuración desde variables de entorno.
func loadFromEnv(cfg *Config) {
	if v := getenv("RECONDRAGON_TARGET", ""); v != "" {
		cfg.Target = v
	}
	if v := getenv("RECONDRAGON_WORKSPACE", ""); v != "" {
		cfg.Workspace = v
	}
	if v := getenv("RECONDRAGON_MODULES", ""); v != "" {
		cfg.Modules = splitList(v)
	}
	if v := getenv("RECONDRAGON_EXECUTE", ""); v != "" {
		cfg.Execute = parseBool(v)
	}
	if v := getenv("RECONDRAGON_AUTHORIZED", ""); v != "" {
		cfg.Authorized = parseBool(v)
	}
	if v := getenv("RECONDRAGON_SCOPE", ""); v != "" {
		cfg.Scope = splitList(v)
	}
	if v := getenv("RECONDRAGON_WORKERS", ""); v != "" {
		cfg.Workers = parseInt(v, cfg.Workers)
	}
	if v := getenv("RECONDRAGON_TIMEOUT", ""); v != "" {
		cfg.TimeoutS = parseInt(v, cfg.TimeoutS)
	}
	if v := getenv("RECONDRAGON_OUTPUT_DIR", ""); v != "" {
		cfg.OutputDir = v
	}
	if v := getenv("RECONDRAGON_STORE_DIR", ""); v != "" {
		cfg.StoreDir = v
	}
	if v := getenv("RECONDRAGON_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
}

// loadFromFlags parsea flags de CLI sobre la configuración ya cargada.
func loadFromFlags(cfg *Config, args []string) error {
	fs := pflag.NewFlagSet("recondragon", pflag.ContinueOnError)

	fs.StringVarP(&cfg.Target, "target", "t", cfg.Target, "Target host, dominio o IP")
	fs.StringVarP(&cfg.Workspace, "workspace", "w", cfg.Workspace, "Workspace de autorización")
	fs.StringSliceVarP(&cfg.Modules, "modules", "m", cfg.Modules, "Módulos a ejecutar (orden de petición)")
	fs.BoolVar(&cfg.Execute, "execute", cfg.Execute, "Ejecutar de verdad (por defecto dry-run)")
	fs.BoolVar(&cfg.Authorized, "authorized", cfg.Authorized, "El workspace autoriza módulos activos")
	fs.StringSliceVar(&cfg.Scope, "scope", cfg.Scope, "Patrones de scope autorizado (exacto, *.sufijo, CIDR)")
	fs.StringVar(&cfg.JobFile, "job-file", cfg.JobFile, "Fichero YAML con la definición del job")

	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Concurrencia máxima de módulos por wave")
	fs.IntVar(&cfg.TimeoutS, "timeout", cfg.TimeoutS, "Timeout global del job en segundos (0 = sin timeout)")

	fs.StringVarP(&cfg.OutputDir, "out", "o", cfg.OutputDir, "Directorio de artifacts")
	fs.StringVar(&cfg.StoreDir, "store", cfg.StoreDir, "Directorio del job store")

	fs.BoolVarP(&cfg.Quiet, "quiet", "q", cfg.Quiet, "Sin salida de progreso en terminal")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Nivel de log (debug, info, warn, error)")
	fs.BoolVar(&cfg.PrintVersion, "version", false, "Imprimir versión y salir")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	return nil
}

func normalize(c *Config) {
	c.Target = strings.TrimSpace(strings.ToLower(strings.TrimSuffix(c.Target, ".")))
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.TimeoutS < 0 {
		c.TimeoutS = 0
	}
	if c.OutputDir == "" {
		c.OutputDir = "recondragon_out"
	}
	if c.StoreDir == "" {
		c.StoreDir = "recondragon_store"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Timeout devuelve el timeout global como duración (0 = sin timeout).
func (c Config) Timeout() time.Duration {
	if c.TimeoutS <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutS) * time.Second
}

// ToJSON serializa la configuración (útil para debugging).
func (c Config) ToJSON() (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Helpers

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(v string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
