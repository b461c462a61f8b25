// Package token provides character predicates and low-level scanners for
// the sudoers lexer: usernames, decimals, quoted text, paths, and upper-case
// keyword identifiers. These are the leaves spec.md §2 calls "token
// primitives" — they know nothing about grammar, only about characters.
package token

// IsIdentStart reports whether c can start an identifier: [A-Za-z_].
func IsIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IsIdentCont reports whether c can continue an identifier:
// [A-Za-z0-9_-] per spec.md §6.
func IsIdentCont(c byte) bool {
	return IsIdentStart(c) || IsDigit(c) || c == '-'
}

// IsDigit reports whether c is a decimal digit.
func IsDigit(c byte) bool { return c >= '0' && c <= '9' }

// IsUpper reports whether c is an upper-case ASCII letter.
func IsUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

// IsUpperIdentStart reports whether c can start an upper-case keyword
// identifier: [A-Z].
func IsUpperIdentStart(c byte) bool { return IsUpper(c) }

// IsUpperIdentCont reports whether c can continue an upper-case keyword
// identifier: [A-Z0-9_].
func IsUpperIdentCont(c byte) bool {
	return IsUpper(c) || IsDigit(c) || c == '_'
}

// IsBlank reports whether c is an inter-token space character (space or
// tab). Newlines are never blank: they terminate a logical line unless
// escaped by a trailing backslash, which is handled by the line-joiner
// before lexing, not here.
func IsBlank(c byte) bool { return c == ' ' || c == '\t' }

// IsPathChar reports whether c may appear in an unquoted absolute-path
// token. Sudoers paths stop at whitespace, comma, colon and the other
// structural separators listed in spec.md §6.
func IsPathChar(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', ',', ':', '=', '(', ')', '!', '#':
		return false
	default:
		return c != 0
	}
}
