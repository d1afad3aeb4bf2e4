package cosmos

// namedBoolTag is implemented by phantom marker types used to parameterize
// NamedBool, each supplying the compile-time default value for its tag.
type namedBoolTag interface {
	defaultValue() bool
}

// NamedBool is a generic carrier that forces call sites to name the
// meaning of a boolean parameter instead of passing a bare bool
// positionally. Two NamedBool values of different tags are different Go
// types and so cannot be passed to the wrong parameter by accident.
//
// Most of this library's boolean parameters (FollowSymlinks,
// AutoCloseFD, CloseOnExec, OverwriteEnv, ...) are exposed as their own
// distinct defined-bool types rather than instantiations of this generic,
// since Go's defined types already give the same non-interchangeability
// guarantee with a far lighter notation at call sites (e.g.
// cosmos.FollowSymlinks(true) reads identically either way). NamedBool is
// kept for the rare case where a default needs to be expressed generically.
type NamedBool[Tag namedBoolTag] struct {
	value bool
}

// NewNamedBool constructs a NamedBool explicitly from a bool.
func NewNamedBool[Tag namedBoolTag](v bool) NamedBool[Tag] {
	return NamedBool[Tag]{value: v}
}

// Bool reads the NamedBool as a plain bool.
func (n NamedBool[Tag]) Bool() bool { return n.value }

// Default-constructed NamedBool values read as their tag's default.
func defaultNamedBool[Tag namedBoolTag]() NamedBool[Tag] {
	var tag Tag
	return NamedBool[Tag]{value: tag.defaultValue()}
}

// FollowSymlinks controls whether a path-resolving operation follows a
// trailing symbolic link (true) or operates on the link itself (false).
// Its zero value is false; there is no implicit default of true.
type FollowSymlinks bool

// AutoCloseFD controls whether an FDFile closes its wrapped descriptor on
// destruction (true) or merely borrows it (false). Its zero value is
// false; there is no implicit default of true.
type AutoCloseFD bool

// CloseOnExec controls whether a newly created descriptor carries
// FD_CLOEXEC. Its zero value is false; there is no implicit default of
// true.
type CloseOnExec bool

// OverwriteEnv controls whether SetEnvVar replaces an existing value.
// Default: false.
type OverwriteEnv bool

// Abstract selects the abstract-namespace flavor of a UnixAddress path
// (leading NUL, no filesystem entry) versus a regular path. Default: false.
type Abstract bool
