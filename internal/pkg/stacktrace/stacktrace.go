// Package stacktrace trims goroutine dumps down to frames inside this module.
package stacktrace

import "strings"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" entries from a
// runtime/debug.Stack dump, outermost frame last.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.SplitSeq(string(stack), "\n") {
		line = strings.TrimSpace(line)
		_, rest, found := strings.Cut(line, "/internal/")
		if !found || !strings.Contains(rest, ".go:") {
			continue
		}
		loc, _, _ := strings.Cut(rest, " ")
		paths = append(paths, "internal/"+loc)
	}
	return paths
}
