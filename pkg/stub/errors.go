// Package stub implements the simulated device: per-stub candidate,
// running, and startup configuration trees with NETCONF edit semantics,
// the SNMP object table, and the stub repositories.
package stub

import (
	"errors"
	"fmt"
)

// ErrEditConfig marks edit-config failures: choice conflicts, create on an
// existing node, deletes of missing nodes, invalid operations. The NETCONF
// service surfaces these as rpc-error replies; the target datastore is
// left unchanged.
var ErrEditConfig = errors.New("edit-config failed")

// EditConfigError carries the message echoed into the rpc-error.
type EditConfigError struct {
	Message string
}

func (e *EditConfigError) Error() string {
	return e.Message
}

func (e *EditConfigError) Unwrap() error {
	return ErrEditConfig
}

// NewEditConfigError creates an edit-config error from a format string
func NewEditConfigError(format string, args ...interface{}) *EditConfigError {
	return &EditConfigError{Message: fmt.Sprintf(format, args...)}
}
