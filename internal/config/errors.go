package config

import (
	"encoding/json"
	"fmt"
)

// ConfigurationError reports a malformed or incomplete user configuration.
// Node is the offending config fragment, when there is one.
type ConfigurationError struct {
	Message string
	Node    any
}

func (e *ConfigurationError) Error() string {
	if e.Node == nil {
		return "configuration error: " + e.Message
	}
	node, err := json.Marshal(e.Node)
	if err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Node)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Message, node)
}

func configErr(node any, format string, args ...any) error {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...), Node: node}
}
