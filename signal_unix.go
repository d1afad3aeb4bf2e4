package cosmos

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// rawSigInfoPtr returns a pointer to the first byte of raw, used to read
// a signalfd_siginfo record directly into its typed fields via read(2).
func rawSigInfoPtr(raw *unix.SignalfdSiginfo) unsafe.Pointer {
	return unsafe.Pointer(raw)
}
