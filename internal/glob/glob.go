// Package glob matches sudoers command paths and argument patterns against
// a concrete invocation (SPEC_FULL.md §4.7). It wraps
// github.com/bmatcuk/doublestar/v4, a direct teacher dependency used
// elsewhere in the corpus for exclusion-pattern matching, following the
// same match-with-err-means-no-match idiom as the teacher's PathExclusionFilter.
package glob

import "github.com/bmatcuk/doublestar/v4"

// MatchPath reports whether path matches pattern, honoring '/'-segmented
// glob wildcards (*, **, ?, [..]) the way doublestar does for file paths.
// An invalid pattern never panics: it simply fails to match, mirroring
// classic sudo treating a malformed CommandSpec entry as a non-match rather
// than aborting evaluation.
func MatchPath(pattern, path string) bool {
	if pattern == path {
		return true
	}
	ok, err := doublestar.Match(pattern, path)
	return err == nil && ok
}

// MatchArgs reports whether the joined argv matches pattern (spec.md §9:
// "present args = fnmatch against the joined invocation"). A nil pattern
// value (no argument pattern present on the CommandSpec) is the caller's
// responsibility to treat as match-any before calling MatchArgs.
func MatchArgs(pattern string, argv []string) bool {
	joined := joinArgs(argv)
	if pattern == joined {
		return true
	}
	ok, err := doublestar.Match(pattern, joined)
	return err == nil && ok
}

func joinArgs(argv []string) string {
	out := ""
	for i, a := range argv {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}
