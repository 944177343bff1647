// Package catalog maps a detected platform to the native packages that
// must be installed before the FastoTV server can be built.
//
// The set of supported platforms is closed: each Variant carries two fixed
// package lists. Required tools are needed for any build at all (compilers,
// build generators); build tools are only needed for some optional
// components. Resolve picks exactly one Variant for an Environment and
// returns its packages as a Plan.
package catalog

// Variant is one supported platform target.
type Variant int

// Supported variants, in declaration order.
const (
	Debian Variant = iota
	RedHat
	Arch
	FreeBSD
	Windows64
	Windows32
	MacOSX
)

type toolLists struct {
	name     string
	required []string
	build    []string
}

var variants = [...]toolLists{
	Debian: {
		name:     "debian",
		required: []string{"git", "yasm", "nasm", "gcc", "g++", "make", "ninja-build", "cmake", "python3-pip"},
		build: []string{"autoconf", "automake", "libtool", "pkg-config", "libudev-dev", "libmongoc-dev",
			"libbson-dev", "libssl-dev"},
	},
	RedHat: {
		name:     "redhat",
		required: []string{"git", "yasm", "nasm", "gcc", "gcc-c++", "make", "ninja-build", "cmake", "python3-pip"},
		build:    []string{"autoconf", "automake", "libtool", "pkgconfig", "libudev-devel", "libmongoc-devel", "openssl-devel"},
	},
	Arch: {
		name:     "arch",
		required: []string{"git", "yasm", "nasm", "gcc", "make", "ninja", "cmake", "python3-pip"},
		build:    []string{"autoconf", "automake", "libtool", "pkgconfig", "udev", "libmongoc-dev", "openssl"},
	},
	FreeBSD: {
		name:     "freebsd",
		required: []string{"git", "yasm", "nasm", "gcc", "make", "ninja", "cmake", "python3-pip"},
		build:    []string{"autoconf", "automake", "libtool", "pkgconfig", "libudev-devd", "libmongoc-dev", "openssl"},
	},
	Windows64: {
		name: "windows64",
		required: []string{"git", "mingw-w64-x86_64-yasm", "mingw-w64-x86_64-nasm", "mingw-w64-x86_64-gcc", "make",
			"mingw-w64-x86_64-ninja", "mingw-w64-x86_64-cmake", "mingw-w64-x86_64-python3-pip",
			"mingw-w64-x86_64-pkg-config"},
	},
	Windows32: {
		name: "windows32",
		required: []string{"git", "mingw-w64-i686-yasm", "mingw-w64-i686-nasm", "mingw-w64-i686-gcc", "make",
			"mingw-w64-i686-ninja", "mingw-w64-i686-cmake", "mingw-w64-i686-python3-pip",
			"mingw-w64-i686-pkg-config"},
	},
	MacOSX: {
		name:     "macosx",
		required: []string{"git", "yasm", "nasm", "make", "ninja", "cmake", "python3-pip"},
		build:    []string{"autoconf", "automake", "libtool", "pkgconfig"},
	},
}

// Variants returns every supported variant in declaration order.
func Variants() []Variant {
	return []Variant{Debian, RedHat, Arch, FreeBSD, Windows64, Windows32, MacOSX}
}

func (v Variant) valid() bool {
	return v >= Debian && v <= MacOSX
}

// String returns the variant name, e.g. "redhat".
func (v Variant) String() string {
	if !v.valid() {
		return "unknown"
	}
	return variants[v].name
}

// RequiredTools returns the packages needed to obtain any build at all.
// The returned slice is a copy.
func (v Variant) RequiredTools() []string {
	if !v.valid() {
		return nil
	}
	return append([]string(nil), variants[v].required...)
}

// BuildTools returns the packages needed only for optional components.
// Empty for the Windows variants. The returned slice is a copy.
func (v Variant) BuildTools() []string {
	if !v.valid() {
		return nil
	}
	return append([]string(nil), variants[v].build...)
}
