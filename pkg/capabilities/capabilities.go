// Package capabilities provides the built-in capability handlers that ship
// with the engine. Hosts register additional capabilities on the registry
// at startup.
package capabilities

import (
	"github.com/hacking-linux/workflow/pkg/engine"
)

// RegisterBuiltins registers every built-in capability on the registry
func RegisterBuiltins(registry *engine.Registry) {
	registry.Register("core", NewCoreHandler)
	registry.Register("http", NewHTTPHandler)
}
