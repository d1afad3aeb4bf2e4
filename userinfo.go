package cosmos

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// PasswdEntry is one decoded record of /etc/passwd, the supplemented
// analogue of the C++ original's PasswdInfo helper around getpwnam_r/
// getpwuid_r. Reading the flat file directly (rather than calling the NSS
// resolver) keeps this library free of cgo for the common case; callers
// needing NSS-aware resolution (LDAP, sssd, ...) should shell out or add
// their own cgo bridge.
type PasswdEntry struct {
	Name    string
	UID     UserID
	GID     GroupID
	GECOS   string
	HomeDir string
	Shell   string
}

// GroupEntry is one decoded record of /etc/group.
type GroupEntry struct {
	Name    string
	GID     GroupID
	Members []string
}

// LookupUser finds a PasswdEntry by login name in /etc/passwd.
func LookupUser(name string) (PasswdEntry, error) {
	entries, err := readPasswd()
	if err != nil {
		return PasswdEntry{}, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e, nil
		}
	}
	return PasswdEntry{}, NewResolveError(name, "", EAINoName, NoError)
}

// LookupUserID finds a PasswdEntry by numeric uid in /etc/passwd.
func LookupUserID(uid UserID) (PasswdEntry, error) {
	entries, err := readPasswd()
	if err != nil {
		return PasswdEntry{}, err
	}
	for _, e := range entries {
		if e.UID == uid {
			return e, nil
		}
	}
	return PasswdEntry{}, NewResolveError(strconv.FormatUint(uint64(uid), 10), "", EAINoName, NoError)
}

// LookupGroup finds a GroupEntry by name in /etc/group.
func LookupGroup(name string) (GroupEntry, error) {
	entries, err := readGroup()
	if err != nil {
		return GroupEntry{}, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e, nil
		}
	}
	return GroupEntry{}, NewResolveError(name, "", EAINoName, NoError)
}

// LookupGroupID finds a GroupEntry by numeric gid in /etc/group.
func LookupGroupID(gid GroupID) (GroupEntry, error) {
	entries, err := readGroup()
	if err != nil {
		return GroupEntry{}, err
	}
	for _, e := range entries {
		if e.GID == gid {
			return e, nil
		}
	}
	return GroupEntry{}, NewResolveError(strconv.FormatUint(uint64(gid), 10), "", EAINoName, NoError)
}

func readPasswd() ([]PasswdEntry, error) {
	f, err := os.Open("/etc/passwd")
	if err != nil {
		return nil, NewFileError("open", "/etc/passwd", MakeErrno(err))
	}
	defer f.Close()

	var entries []PasswdEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) < 7 {
			continue
		}
		uid, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			continue
		}
		gid, err := strconv.ParseUint(fields[3], 10, 32)
		if err != nil {
			continue
		}
		entries = append(entries, PasswdEntry{
			Name:    fields[0],
			UID:     UserID(uid),
			GID:     GroupID(gid),
			GECOS:   fields[4],
			HomeDir: fields[5],
			Shell:   fields[6],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, NewFileError("read", "/etc/passwd", MakeErrno(err))
	}
	return entries, nil
}

func readGroup() ([]GroupEntry, error) {
	f, err := os.Open("/etc/group")
	if err != nil {
		return nil, NewFileError("open", "/etc/group", MakeErrno(err))
	}
	defer f.Close()

	var entries []GroupEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) < 4 {
			continue
		}
		gid, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			continue
		}
		var members []string
		if fields[3] != "" {
			members = strings.Split(fields[3], ",")
		}
		entries = append(entries, GroupEntry{
			Name:    fields[0],
			GID:     GroupID(gid),
			Members: members,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, NewFileError("read", "/etc/group", MakeErrno(err))
	}
	return entries, nil
}
