// internal/platform/config/jobfile.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"recondragon/internal/core/domain"
)

// jobFile es el esquema YAML de definición de un job:
//
//	job:
//	  workspace: acme-pentest
//	  target: example.com
//	  execute: true
//	  authorized: true
//	  scope:
//	    - "*.example.com"
//	  modules:
//	    - subfinder
//	    - nmap
//	  options:
//	    nmap:
//	      ports: "1-1024"
//	      retries: 2
type jobFile struct {
	Job jobSpec `yaml:"job"`
}

type jobSpec struct {
	Workspace  string                    `yaml:"workspace"`
	Target     string                    `yaml:"target"`
	Modules    []string                  `yaml:"modules"`
	Options    map[string]map[string]any `yaml:"options"`
	Execute    bool                      `yaml:"execute"`
	Authorized bool                      `yaml:"authorized"`
	Scope      []string                  `yaml:"scope"`
}

// LoadJobFile parsea una definición YAML y la convierte en un Job listo para
// someter. La validación semántica la hace el Orchestrator vía Job.Validate.
func LoadJobFile(path string) (*domain.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job file %s: %w", path, err)
	}

	var file jobFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing job file %s: %w", path, err)
	}

	spec := file.Job
	job := domain.NewJob(spec.Workspace, spec.Target, spec.Modules)
	job.Execute = spec.Execute
	job.Authorized = spec.Authorized
	job.Scope = spec.Scope
	if spec.Options != nil {
		job.Options = spec.Options
	}
	return job, nil
}

// BuildJob materializa un Job desde la configuración: el fichero YAML manda si
// está presente, si no se arma desde los flags/ENV.
func (c Config) BuildJob() (*domain.Job, error) {
	if c.JobFile != "" {
		return LoadJobFile(c.JobFile)
	}

	job := domain.NewJob(c.Workspace, c.Target, c.Modules)
	job.Execute = c.Execute
	job.Authorized = c.Authorized
	job.Scope = c.Scope
	return job, nil
}
