package hosttypes

import (
	"os"
	"strings"
)

// Host file open flags. Values match the host's PR_* bitmask.
const (
	FileRDONLY     = 0x01
	FileWRONLY     = 0x02
	FileRDWR       = 0x04
	FileCreateFile = 0x08
	FileAppend     = 0x10
	FileTruncate   = 0x20
	FileSync       = 0x40
	FileExcl       = 0x80
)

// String open modes.
const (
	ModeRead   = "r"
	ModeWrite  = "w"
	ModeAppend = "a"
	ModeBinary = "b"
)

// Entry types and defaults used when creating files and directories.
const (
	NormalFileType   = 0
	DirectoryType    = 1
	FileChunk        = 1024
	FileDefaultPerms = os.FileMode(0o644)
	DirDefaultPerms  = os.FileMode(0o755)
)

// OpenFlags maps a host flag mask to os.OpenFile flags.
func OpenFlags(mask int) int {
	var flag int
	switch {
	case mask&FileRDWR != 0:
		flag = os.O_RDWR
	case mask&FileWRONLY != 0:
		flag = os.O_WRONLY
	default:
		flag = os.O_RDONLY
	}
	if mask&FileCreateFile != 0 {
		flag |= os.O_CREATE
	}
	if mask&FileAppend != 0 {
		flag |= os.O_APPEND
	}
	if mask&FileTruncate != 0 {
		flag |= os.O_TRUNC
	}
	if mask&FileSync != 0 {
		flag |= os.O_SYNC
	}
	if mask&FileExcl != 0 {
		flag |= os.O_EXCL
	}
	return flag
}

// ModeFlags returns the host flag mask for a string mode and whether the
// mode is known. "w" and "" truncate, "a" appends; both create. "b" is
// accepted and ignored.
func ModeFlags(mode string) (int, bool) {
	switch strings.ReplaceAll(mode, ModeBinary, "") {
	case ModeAppend:
		return FileAppend | FileRDWR | FileCreateFile, true
	case ModeRead:
		return FileRDONLY, true
	case ModeWrite, "":
		return FileTruncate | FileWRONLY | FileCreateFile, true
	default:
		return 0, false
	}
}

// StripFileScheme removes a leading file:// from a path.
func StripFileScheme(path string) string {
	return strings.TrimPrefix(path, "file://")
}
