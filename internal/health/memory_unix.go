//go:build unix

package health

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// rusageRSS returns the peak resident set size reported by getrusage.
func rusageRSS() (uint64, error) {
	var usage unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &usage); err != nil {
		return 0, err
	}
	maxrss := uint64(usage.Maxrss)
	// darwin reports bytes, the other unixes kilobytes
	if runtime.GOOS != "darwin" && runtime.GOOS != "ios" {
		maxrss *= 1024
	}
	return maxrss, nil
}
