package cosmos

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// epollDataPtr returns a pointer to the 8-byte epoll_data union embedded
// in ev, starting at its Fd field (x/sys/unix splits the union into Fd
// and Pad int32 fields immediately following Events; together they are
// exactly as wide and as aligned as the uint64 this library stores
// there).
func epollDataPtr(ev *unix.EpollEvent) unsafe.Pointer {
	return unsafe.Pointer(&ev.Fd)
}
