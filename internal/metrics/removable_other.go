//go:build !linux

package metrics

// isRemovable is only implemented on Linux.
func isRemovable(string) bool { return false }
