package yangtree

import "strings"

// PartMaxSize caps each yang_tree_<i>.part chunk.
const PartMaxSize = 2 * 1024 * 1024

// SplitParts chunks a serialized schema tree into ordered part payloads.
func SplitParts(serialized string) []string {
	if serialized == "" {
		return []string{""}
	}
	var parts []string
	for i := 0; i < len(serialized); i += PartMaxSize {
		end := i + PartMaxSize
		if end > len(serialized) {
			end = len(serialized)
		}
		parts = append(parts, serialized[i:end])
	}
	return parts
}

// JoinParts reassembles SplitParts output.
func JoinParts(parts []string) string {
	return strings.Join(parts, "")
}
