package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/nettask/nettask/pkg/spack"
)

type taskFieldSpec struct {
	Name     string `mapstructure:"name"`
	Type     string `mapstructure:"type"`
	Required bool   `mapstructure:"required"`
}

type taskSchemaSpec struct {
	Name   string          `mapstructure:"name"`
	Fields []taskFieldSpec `mapstructure:"fields"`
}

type taskSchemaFile struct {
	Tasks []taskSchemaSpec `mapstructure:"tasks"`
}

// LoadTaskSchemas reads a YAML file listing task schemas (an agent's
// AgentConfig.TaskSchemasFile, or a server's ServerConfig.TaskDescriptorsFile
// seed) into a name-keyed map ready for pkg/protocol's PushSchemas/SendMetrics
// variants. A task schema file looks like:
//
//	tasks:
//	  - name: cpu-sample
//	    fields:
//	      - {name: usage, type: float64, required: true}
//	      - {name: ts, type: timestamp, required: true}
func LoadTaskSchemas(path string) (map[string]spack.TaskSchema, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read task schemas file %s: %w", path, err)
	}

	var file taskSchemaFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("config: decode task schemas file %s: %w", path, err)
	}

	out := make(map[string]spack.TaskSchema, len(file.Tasks))
	for _, t := range file.Tasks {
		fields := make([]spack.FieldDef, len(t.Fields))
		for i, f := range t.Fields {
			ft, err := spack.ParseFieldType(f.Type)
			if err != nil {
				return nil, fmt.Errorf("config: task %q field %q: %w", t.Name, f.Name, err)
			}
			fields[i] = spack.FieldDef{Name: f.Name, Type: ft, Required: f.Required}
		}
		out[t.Name] = spack.TaskSchema{Name: t.Name, Fields: fields}
	}
	return out, nil
}
