// Package slugs derives path segments for repository objects.
//
// A segment is the name an object is addressed by inside its folder, as in
// /projects/q3-report.pdf. Segments are lower-case ASCII built on
// gosimple/slug; a short file extension is kept.
package slugs

import (
	"strconv"
	"strings"

	goslug "github.com/gosimple/slug"
)

// Fallback is used when a name has nothing to slugify.
const Fallback = "object"

// Segment converts an object name to a path segment.
//
// "Quarterly Report.PDF" -> "quarterly-report.pdf"
func Segment(name string) string {
	base, ext := splitExt(strings.TrimSpace(name))
	s := goslug.Make(base)
	if s == "" {
		s = Fallback
	}
	if ext != "" {
		if e := goslug.Make(ext); e != "" {
			s += "." + e
		}
	}
	return s
}

// Unique returns seg, or seg with a numeric suffix before its extension,
// such that taken reports false for it.
//
// "notes.txt" -> "notes-2.txt" -> "notes-3.txt"
func Unique(seg string, taken func(string) bool) string {
	if !taken(seg) {
		return seg
	}
	base, ext := splitExt(seg)
	if ext != "" {
		ext = "." + ext
	}
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n) + ext
		if !taken(candidate) {
			return candidate
		}
	}
}

// Split breaks an absolute path into its segments. "/" yields none; empty
// segments from repeated or trailing slashes are dropped.
func Split(path string) []string {
	var out []string
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Join builds an absolute path from segments.
func Join(segments ...string) string {
	return "/" + strings.Join(segments, "/")
}

// splitExt separates a short alphanumeric extension. Dotfiles and long
// suffixes are treated as part of the base name.
func splitExt(name string) (string, string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 || len(name)-i-1 > 8 {
		return name, ""
	}
	ext := name[i+1:]
	for _, r := range ext {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return name, ""
		}
	}
	return name[:i], ext
}
