//go:build linux

package metrics

import (
	"os"
	"path/filepath"
	"strings"
)

var _sysBlock = "/sys/class/block"

// isRemovable reads the kernel's removable flag for device. Partitions carry
// no flag of their own, so the parent block device is consulted too.
func isRemovable(device string) bool {
	name := filepath.Base(device)
	if name == "" || name == "." || name == "/" {
		return false
	}
	dir, err := filepath.EvalSymlinks(filepath.Join(_sysBlock, name))
	if err != nil {
		return false
	}
	for _, p := range []string{
		filepath.Join(dir, "removable"),
		filepath.Join(filepath.Dir(dir), "removable"),
	} {
		if data, err := os.ReadFile(p); err == nil {
			return strings.TrimSpace(string(data)) == "1"
		}
	}
	return false
}
