package cosmos

import (
	"time"

	"golang.org/x/sys/unix"
)

// FileModeBits is the permission and type portion of a file's st_mode,
// exposed as a bitmask so callers can test individual permission bits
// without hand-rolled octal arithmetic.
type FileModeBits = BitMask[uint32]

const (
	ModeSetUID uint32 = unix.S_ISUID
	ModeSetGID uint32 = unix.S_ISGID
	ModeSticky uint32 = unix.S_ISVTX

	ModeUserRead   uint32 = unix.S_IRUSR
	ModeUserWrite  uint32 = unix.S_IWUSR
	ModeUserExec   uint32 = unix.S_IXUSR
	ModeGroupRead  uint32 = unix.S_IRGRP
	ModeGroupWrite uint32 = unix.S_IWGRP
	ModeGroupExec  uint32 = unix.S_IXGRP
	ModeOtherRead  uint32 = unix.S_IROTH
	ModeOtherWrite uint32 = unix.S_IWOTH
	ModeOtherExec  uint32 = unix.S_IXOTH
)

// NewFileModeBits builds a FileModeBits from a raw permission octal, e.g.
// NewFileModeBits(0644).
func NewFileModeBits(perm uint32) FileModeBits {
	return MakeBitMask(perm)
}

// FileStatus is the decoded result of a stat(2) family call: everything
// the kernel reports about an inode at a point in time.
type FileStatus struct {
	Dev     DeviceID
	Ino     Inode
	Type    FileType
	Perm    FileModeBits
	Links   uint64
	UID     UserID
	GID     GroupID
	RDev    DeviceID
	Size    int64
	BlkSize int64
	Blocks  int64
	ATime   time.Time
	MTime   time.Time
	CTime   time.Time
}

// IsDir, IsRegular, IsSymlink are convenience predicates over Type.
func (s FileStatus) IsDir() bool      { return s.Type == Directory }
func (s FileStatus) IsRegular() bool  { return s.Type == RegularFile }
func (s FileStatus) IsSymlink() bool  { return s.Type == SymbolicLink }
func (s FileStatus) IsSocket() bool   { return s.Type == Socket }
func (s FileStatus) IsFIFO() bool     { return s.Type == FIFO }
func (s FileStatus) IsCharDev() bool  { return s.Type == CharDevice }
func (s FileStatus) IsBlockDev() bool { return s.Type == BlockDevice }

func makeFileType(mode uint32) FileType {
	switch mode & unix.S_IFMT {
	case unix.S_IFREG:
		return RegularFile
	case unix.S_IFDIR:
		return Directory
	case unix.S_IFCHR:
		return CharDevice
	case unix.S_IFBLK:
		return BlockDevice
	case unix.S_IFIFO:
		return FIFO
	case unix.S_IFLNK:
		return SymbolicLink
	case unix.S_IFSOCK:
		return Socket
	default:
		return UnknownType
	}
}

func makeFileStatus(st *unix.Stat_t) FileStatus {
	return FileStatus{
		Dev:     DeviceID(st.Dev),
		Ino:     Inode(st.Ino),
		Type:    makeFileType(st.Mode),
		Perm:    MakeBitMask(st.Mode & 0o7777),
		Links:   uint64(st.Nlink),
		UID:     UserID(st.Uid),
		GID:     GroupID(st.Gid),
		RDev:    DeviceID(st.Rdev),
		Size:    st.Size,
		BlkSize: int64(st.Blksize),
		Blocks:  st.Blocks,
		ATime:   time.Unix(st.Atim.Sec, st.Atim.Nsec),
		MTime:   time.Unix(st.Mtim.Sec, st.Mtim.Nsec),
		CTime:   time.Unix(st.Ctim.Sec, st.Ctim.Nsec),
	}
}
