package osutil

import (
	"os"
	"strconv"
	"strings"

	"github.com/pbnjay/memory"
)

const (
	// The default cgroup v1 limit_in_bytes, which indicates memory isn't
	// restricted
	unrestrictedMemoryLimit = 9223372036854771712

	cgroupV1MemoryLimitLocation = "/sys/fs/cgroup/memory/memory.limit_in_bytes"
	cgroupV2MemoryLimitLocation = "/sys/fs/cgroup/memory.max"
)

// GetTotalMemory returns the total available memory size. The call is
// container-aware.
func GetTotalMemory() uint64 {
	totalMemory := memory.TotalMemory()

	for _, location := range []string{cgroupV2MemoryLimitLocation, cgroupV1MemoryLimitLocation} {
		if limit, ok := readMemoryLimit(location); ok && limit < totalMemory {
			return limit
		}
	}
	return totalMemory
}

func readMemoryLimit(location string) (uint64, bool) {
	raw, err := os.ReadFile(location)
	if err != nil {
		return 0, false
	}
	return parseMemoryLimit(string(raw))
}

// parseMemoryLimit reads a cgroup memory limit, where "max" (v2) or the v1
// default mean no limit
func parseMemoryLimit(raw string) (uint64, bool) {
	value := strings.TrimSpace(raw)
	if value == "max" {
		return 0, false
	}

	limit, err := strconv.ParseUint(value, 10, 64)
	if err != nil || limit == 0 || limit == unrestrictedMemoryLimit {
		return 0, false
	}
	return limit, true
}
