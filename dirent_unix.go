package cosmos

import (
	"encoding/binary"
)

// parseDirent decodes a single linux_dirent64 record from the front of
// buf, returning the decoded entry, the remaining unparsed bytes, and
// whether a complete record was found. The on-disk layout is:
//
//	u64 d_ino
//	s64 d_off
//	u16 d_reclen
//	u8  d_type
//	char d_name[]  (NUL-terminated)
func parseDirent(buf []byte) (DirEntry, []byte, bool) {
	const fixedHeaderLen = 19 // 8 + 8 + 2 + 1
	if len(buf) < fixedHeaderLen {
		return DirEntry{}, buf, false
	}
	ino := binary.LittleEndian.Uint64(buf[0:8])
	reclen := binary.LittleEndian.Uint16(buf[16:18])
	dtype := buf[18]
	if int(reclen) > len(buf) || reclen < fixedHeaderLen {
		return DirEntry{}, buf, false
	}
	nameBytes := buf[19:reclen]
	end := 0
	for end < len(nameBytes) && nameBytes[end] != 0 {
		end++
	}
	name := string(nameBytes[:end])
	entry := DirEntry{
		Name:  name,
		Inode: Inode(ino),
		Type:  direntType(dtype),
	}
	return entry, buf[reclen:], true
}

// direntType translates the d_type byte of a linux_dirent64 record
// (DT_REG, DT_DIR, ...) into this library's FileType.
func direntType(dtype byte) FileType {
	switch dtype {
	case 1: // DT_FIFO
		return FIFO
	case 2: // DT_CHR
		return CharDevice
	case 4: // DT_DIR
		return Directory
	case 6: // DT_BLK
		return BlockDevice
	case 8: // DT_REG
		return RegularFile
	case 10: // DT_LNK
		return SymbolicLink
	case 12: // DT_SOCK
		return Socket
	default: // DT_UNKNOWN or unrecognized
		return UnknownType
	}
}
