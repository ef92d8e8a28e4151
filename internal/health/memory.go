package health

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// statmPath is a variable so tests can point it elsewhere.
var statmPath = "/proc/self/statm"

// ResidentMemory returns the resident set size of the process. It reads
// /proc/self/statm where available, then asks getrusage (peak RSS) and finally
// falls back to the memory the Go runtime obtained from the OS.
func ResidentMemory() (uint64, error) {
	if rss, err := readStatm(statmPath); err == nil {
		return rss, nil
	}
	if rss, err := rusageRSS(); err == nil && rss > 0 {
		return rss, nil
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Sys, nil
}

// readStatm parses the second field of a statm file (resident pages).
func readStatm(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return 0, fmt.Errorf("unexpected statm format: %q", strings.TrimSpace(string(data)))
	}
	pages, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse resident pages: %w", err)
	}
	return pages * uint64(os.Getpagesize()), nil
}
