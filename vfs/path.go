package vfs

import (
	"path"
	"strings"
)

// canonical cleans p and strips leading and trailing slashes. "." and ".."
// segments are resolved, ".." never climbs above root. Root is "".
func canonical(p string) string {
	if p == "" {
		return ""
	}
	return strings.Trim(path.Clean("/"+p), "/")
}

// resolve interprets p relative to the canonical directory cwd. Paths
// starting with "/" are absolute.
func resolve(cwd, p string) string {
	if strings.HasPrefix(p, "/") {
		return canonical(p)
	}
	return canonical(cwd + "/" + p)
}

// join appends name to the canonical directory dir
func join(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// parent returns the canonical parent directory of the canonical path p
func parent(p string) string {
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return ""
	}
	return p[:i]
}

// isUnder reports whether canonical p lies strictly below canonical dir
func isUnder(p, dir string) bool {
	if dir == "" {
		return p != ""
	}
	return strings.HasPrefix(p, dir+"/")
}

// display renders a canonical path the way the shell reports it: "/a/b",
// with root as the empty string.
func display(p string) string {
	if p == "" {
		return ""
	}
	return "/" + p
}
