package cpan

import (
	"regexp"
	"strings"
)

// DistInfo is the result of dissecting a CPAN author pathname such as
// "A/AU/AUTHOR/Foo-Bar-1.00.tar.gz".
type DistInfo struct {
	Author   string // AUTHOR
	Name     string // Foo-Bar
	Version  string // 1.00
	Fullname string // Foo-Bar-1.00
}

var (
	archiveSuffixes = []string{".tar.gz", ".tar.bz2", ".tgz", ".zip"}

	// name/version split at the last dash followed by a (possibly v-prefixed)
	// digit, e.g. "Foo-Bar-1.00" or "Module-Name-v2.0.1".
	distnameRe = regexp.MustCompile(`^(.+)-(v?[0-9][0-9a-zA-Z._]*)$`)
)

// ParseDistname extracts the owning author and distribution name from a
// package pathname as listed in the CPAN index. It reports false for
// pathnames that are not recognizable distribution archives.
func ParseDistname(pathname string) (DistInfo, bool) {
	parts := strings.Split(strings.Trim(pathname, "/"), "/")
	file := parts[len(parts)-1]

	var author string
	if len(parts) >= 2 {
		author = parts[len(parts)-2]
	}

	fullname := ""
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(file, suffix) {
			fullname = strings.TrimSuffix(file, suffix)
			break
		}
	}
	if fullname == "" {
		return DistInfo{}, false
	}

	info := DistInfo{
		Author:   author,
		Fullname: fullname,
	}
	if m := distnameRe.FindStringSubmatch(fullname); m != nil {
		info.Name = m[1]
		info.Version = m[2]
	} else {
		// Unversioned archive; the whole basename is the distribution name.
		info.Name = fullname
	}
	return info, true
}
