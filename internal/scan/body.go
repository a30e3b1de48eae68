package scan

// BodyEnd returns the offset of the brace closing the body that starts at
// start, which must be the offset right after an opening brace. Depth starts
// at 1. Braces inside comments and literals count like any other.
// If the body is never closed, BodyEnd returns len(src).
func BodyEnd(src []byte, start int) int {
	depth := 1
	for i := start; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(src)
}
