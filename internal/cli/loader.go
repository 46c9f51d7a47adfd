package cli

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/quilldb/quill/internal/model"
	"github.com/quilldb/quill/internal/queryaql"
	"github.com/quilldb/quill/internal/queryir"
)

// LoadModel reads a model file (.cue, .yaml, or .yml).
func LoadModel(path string) (*model.Model, error) {
	if path == "" {
		return nil, fmt.Errorf("a model file is required (--model)")
	}
	m, err := model.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", path, err)
	}
	return m, nil
}

// LoadQuery reads and decodes a JSON query document against a model.
func LoadQuery(path string, m *model.Model) (queryir.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query document: %w", err)
	}
	node, err := queryir.Decode(data, m)
	if err != nil {
		return nil, fmt.Errorf("decoding query %s: %w", path, err)
	}
	return node, nil
}

// LoadCompilerOptions assembles compiler options from an optional config
// file plus environment overrides (QUILL_ prefix). The config currently
// carries the experimental switches:
//
//	experimental:
//	  projectionIndirection: [Delivery, HandlingUnit]
func LoadCompilerOptions(configPath string) (queryaql.Options, error) {
	v := viper.New()
	v.SetEnvPrefix("QUILL")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return queryaql.Options{}, fmt.Errorf("reading config %s: %w", configPath, err)
		}
	}

	opts := queryaql.Options{}
	if types := v.GetStringSlice("experimental.projectionIndirection"); len(types) > 0 {
		opts.ProjectionIndirection = make(map[string]bool, len(types))
		for _, t := range types {
			opts.ProjectionIndirection[t] = true
		}
	}
	return opts, nil
}
