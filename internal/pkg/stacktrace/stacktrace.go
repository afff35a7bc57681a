// Package stacktrace condenses panic stacks down to this module's frames.
package stacktrace

import "strings"

// InternalPaths extracts the "internal/...go:line" locations from a raw
// debug.Stack dump, newest frame first. Frames outside internal/ are
// dropped so panic logs stay readable.
func InternalPaths(stack []byte) []string {
	var paths []string

	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)

		start := strings.Index(line, "/internal/")
		if start == -1 {
			continue
		}

		ext := strings.Index(line, ".go:")
		if ext == -1 {
			continue
		}

		end := len(line)
		if sp := strings.IndexByte(line[ext:], ' '); sp != -1 {
			end = ext + sp
		}
		if end <= start {
			continue
		}

		paths = append(paths, line[start+1:end])
	}

	return paths
}
