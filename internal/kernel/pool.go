// Package kernel wraps the host entropy pool: the poolsize file read once
// at startup and the /dev/random ioctls that query and credit entropy.
package kernel

import (
	"strconv"
	"strings"

	"epf/internal/errs"
)

const (
	poolSizePath = "/proc/sys/kernel/random/poolsize"
	devRandom    = "/dev/random"
)

// MaxPoolBytes caps the pool size accepted from /proc; larger values are
// clamped.
const MaxPoolBytes = 64 * 1024

// parsePoolSize interprets the poolsize file contents as a decimal bit
// count and converts it to bytes. An absent, non-numeric, or zero pool
// size is a startup failure, never defaulted.
func parsePoolSize(raw []byte) (int, error) {
	s := strings.TrimSpace(string(raw))
	bits, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.New(errs.KindKernelOpen, "kernel pool size is not numeric: "+s)
	}
	poolBytes := bits / 8
	if poolBytes <= 0 {
		return 0, errs.New(errs.KindKernelOpen, "kernel pool size is zero")
	}
	if poolBytes > MaxPoolBytes {
		poolBytes = MaxPoolBytes
	}
	return poolBytes, nil
}
