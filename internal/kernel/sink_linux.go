//go:build linux

package kernel

import (
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"epf/internal/errs"
)

// Sink is an open write handle on /dev/random plus the pool size read at
// startup. It is owned by the feeder goroutine for its whole lifetime and
// is not safe for concurrent use.
type Sink struct {
	f         *os.File
	poolBytes int
}

// OpenSink reads the kernel pool size, opens /dev/random write-only, and
// probes RNDGETENTCNT once so a missing CAP_SYS_ADMIN surfaces at startup
// instead of at the first injection.
func OpenSink() (*Sink, error) {
	raw, err := os.ReadFile(poolSizePath)
	if err != nil {
		return nil, errs.Wrap(errs.KindKernelOpen, "cannot get the size of the kernel entropy pool "+poolSizePath, err)
	}
	poolBytes, err := parsePoolSize(raw)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(devRandom, os.O_WRONLY, 0)
	if err != nil {
		return nil, errs.Wrap(errs.KindKernelOpen, "cannot open "+devRandom, err)
	}

	s := &Sink{f: f, poolBytes: poolBytes}
	if _, err := s.EntropyBits(); err != nil {
		f.Close()
		return nil, errs.Wrap(errs.KindKernelOpen,
			"cannot verify available entropy in the pool, make sure you run this utility with CAP_SYS_ADMIN capability", err)
	}
	return s, nil
}

// PoolBytes reports the clamped kernel pool size in bytes.
func (s *Sink) PoolBytes() int { return s.poolBytes }

// EntropyBits queries the current entropy bit count via RNDGETENTCNT.
func (s *Sink) EntropyBits() (int, error) {
	bits, err := unix.IoctlGetInt(int(s.f.Fd()), unix.RNDGETENTCNT)
	if err != nil {
		return 0, errs.Wrap(errs.KindKernelQuery, "cannot query entropy in the pool", err)
	}
	return bits, nil
}

// Inject submits data to the pool in a single RNDADDENTROPY ioctl,
// crediting entropyBits bits total. The ioctl argument is the kernel's
// rand_pool_info layout: two native int32 fields followed by the payload.
func (s *Sink) Inject(entropyBits int, data []byte) error {
	buf := make([]byte, 8+len(data))
	*(*int32)(unsafe.Pointer(&buf[0])) = int32(entropyBits)
	*(*int32)(unsafe.Pointer(&buf[4])) = int32(len(data))
	copy(buf[8:], data)

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, s.f.Fd(), uintptr(unix.RNDADDENTROPY), uintptr(unsafe.Pointer(&buf[0])))
	runtime.KeepAlive(buf)
	if errno != 0 {
		return errs.Wrap(errs.KindKernelInject, "cannot add more entropy to the pool", errno)
	}
	return nil
}

// Close releases the /dev/random handle.
func (s *Sink) Close() error { return s.f.Close() }
