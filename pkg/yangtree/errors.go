// Package yangtree builds and navigates normalized YANG schema trees.
//
// The builder parses YANG module text into raw statements, emits a schema
// tree of container/list/leaf/leaf-list/choice/case nodes tagged with their
// module namespace, expands uses/grouping references, and applies augments
// across modules. The resulting tree drives config-store validation and
// edit semantics.
package yangtree

import (
	"errors"
	"fmt"
)

// ErrUnknownNode marks navigation failures: a name that is not a schema
// child of the probed node.
var ErrUnknownNode = errors.New("unknown yang node")

// UnknownNodeError reports the unresolved name and where the lookup
// happened.
type UnknownNodeError struct {
	Message string
}

func (e *UnknownNodeError) Error() string {
	return e.Message
}

func (e *UnknownNodeError) Unwrap() error {
	return ErrUnknownNode
}

// NewUnknownNodeError creates an unknown-node error from a format string
func NewUnknownNodeError(format string, args ...interface{}) *UnknownNodeError {
	return &UnknownNodeError{Message: fmt.Sprintf(format, args...)}
}

// ErrBuild marks schema build failures such as unresolved groupings or
// missing imports.
var ErrBuild = errors.New("yang build failed")

// BuildError reports a build-time failure. Build errors surface at the
// build command; at runtime a stub without a YANG tree still serves the
// other protocols.
type BuildError struct {
	Message string
}

func (e *BuildError) Error() string {
	return e.Message
}

func (e *BuildError) Unwrap() error {
	return ErrBuild
}

// NewBuildError creates a build error from a format string
func NewBuildError(format string, args ...interface{}) *BuildError {
	return &BuildError{Message: fmt.Sprintf(format, args...)}
}
