// Package snmp implements the per-stub SNMP object table and the
// GET / GET-NEXT / GET-BULK walker over it. OIDs are compared as sequences
// of non-negative integers, not as strings.
package snmp

import (
	"strconv"
	"strings"

	"github.com/netmimic/netmimic/pkg/util"
)

// ParseOID splits a dotted OID string into its integer components.
// A leading dot is accepted.
func ParseOID(oid string) ([]uint64, error) {
	trimmed := strings.TrimPrefix(oid, ".")
	if trimmed == "" {
		return nil, util.NewValidationError("invalid oid '%s'", oid)
	}
	parts := strings.Split(trimmed, ".")
	components := make([]uint64, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, util.NewValidationError("invalid oid '%s'", oid)
		}
		components[i] = n
	}
	return components, nil
}

// CompareOID orders two parsed OIDs component-wise. It returns -1, 0, or 1.
func CompareOID(a, b []uint64) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}
