package resources

import (
	"strconv"
	"strings"
)

// RenameOnCollision returns candidate unchanged when no sibling uses it.
// Otherwise it appends " (n)" with the smallest n >= 1 that yields an unused
// name, keeping the extension in place for files. Folder names never split on
// a dot.
func RenameOnCollision(existing []string, candidate string, isFile bool) string {
	used := make(map[string]struct{}, len(existing))
	for _, n := range existing {
		used[n] = struct{}{}
	}
	if _, taken := used[candidate]; !taken {
		return candidate
	}
	base, ext := candidate, ""
	if isFile {
		// a leading dot is a hidden-file name, not an extension
		if i := strings.LastIndex(candidate, "."); i > 0 {
			base, ext = candidate[:i], candidate[i:]
		}
	}
	for n := 1; ; n++ {
		next := base + " (" + strconv.Itoa(n) + ")" + ext
		if _, taken := used[next]; !taken {
			return next
		}
	}
}
