package script

import "strings"

// shapeSentinel marks pure-digit shape patterns so the lexer can tell
// them apart from integer literals. Shape patterns collide lexically
// with 4-digit integers: `cccc(north) >= 1500` must stay arithmetic
// while `shape(north, 5242)` must parse as a pattern. The
// preprocessor scans shape(...) arguments and prefixes any standalone
// 4-digit run with the sentinel, except immediately after the `any`
// keyword (which already disambiguates).
const shapeSentinel = "%s"

// Preprocess marks pure-digit shape patterns inside shape() calls.
func Preprocess(input string) string {
	var out strings.Builder
	out.Grow(len(input) + 16)

	i := 0
	for i < len(input) {
		start := matchShapeCall(input, i)
		if start < 0 {
			out.WriteByte(input[i])
			i++
			continue
		}
		// Copy "shape" and any whitespace up to and including '('.
		out.WriteString(input[i:start])
		end := findCloseParen(input, start)
		out.WriteString(markShapeDigits(input[start:end]))
		i = end
	}
	return out.String()
}

// matchShapeCall reports whether a shape( call starts at i, returning
// the offset just past the opening paren, or -1.
func matchShapeCall(input string, i int) int {
	const kw = "shape"
	if !hasWordAt(input, i, kw) {
		return -1
	}
	j := i + len(kw)
	for j < len(input) && (input[j] == ' ' || input[j] == '\t') {
		j++
	}
	if j >= len(input) || input[j] != '(' {
		return -1
	}
	return j + 1
}

// hasWordAt reports whether the word appears at i with identifier
// boundaries on both sides (case-insensitive).
func hasWordAt(input string, i int, word string) bool {
	if i+len(word) > len(input) {
		return false
	}
	if !strings.EqualFold(input[i:i+len(word)], word) {
		return false
	}
	if i > 0 && isIdentChar(input[i-1]) {
		return false
	}
	if i+len(word) < len(input) && isIdentChar(input[i+len(word)]) {
		return false
	}
	return true
}

// findCloseParen returns the offset of the parenthesis matching the
// call opened just before start (or the end of input if unbalanced;
// the parser will report the real error).
func findCloseParen(input string, start int) int {
	depth := 1
	for i := start; i < len(input); i++ {
		switch input[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(input)
}

// markShapeDigits prefixes standalone 4-digit runs with the sentinel,
// skipping runs directly after the `any` keyword.
func markShapeDigits(arg string) string {
	var out strings.Builder
	out.Grow(len(arg) + 8)

	i := 0
	for i < len(arg) {
		if !isDigit(arg[i]) || (i > 0 && isIdentChar(arg[i-1])) {
			out.WriteByte(arg[i])
			i++
			continue
		}
		j := i
		for j < len(arg) && isDigit(arg[j]) {
			j++
		}
		run := arg[i:j]
		boundary := j >= len(arg) || !isIdentChar(arg[j])
		if len(run) == 4 && boundary && !followsAny(arg, i) {
			out.WriteString(shapeSentinel)
		}
		out.WriteString(run)
		i = j
	}
	return out.String()
}

// followsAny reports whether the run starting at i directly follows
// the keyword `any` (separated only by whitespace).
func followsAny(arg string, i int) bool {
	j := i
	for j > 0 && (arg[j-1] == ' ' || arg[j-1] == '\t') {
		j--
	}
	if j == i {
		return false
	}
	const kw = "any"
	if j < len(kw) {
		return false
	}
	return hasWordAt(arg, j-len(kw), kw)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isIdentChar(b byte) bool {
	return b == '_' || isDigit(b) ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
