package adapter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads the declarative subset of Config from a YAML file. Hooks
// cannot be declared in YAML; attach them to the returned config in code.
//
// Example document:
//
//	tools:
//	  write_document:
//	    stop_streaming_after_result: true
//	    predict_state:
//	      - state_key: document
//	        tool_argument: document
//	state_snapshot_exclude: [messages]
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes the declarative subset of Config from YAML bytes.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	for _, m := range cfg.PredictState {
		if m.Tool == "" {
			return Config{}, fmt.Errorf("predict_state mapping for state key %q names no tool", m.StateKey)
		}
	}
	return cfg, nil
}
