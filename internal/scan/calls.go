package scan

import "regexp"

var callRe = regexp.MustCompile(`\b(\w+)\s*\(`)

// Calls returns every identifier directly followed by an opening parenthesis
// in body, left to right, duplicates kept. Keywords such as `if` or `while`
// are returned like any other identifier.
func (s *Scanner) Calls(body []byte) []string {
	var calls []string
	for _, m := range callRe.FindAllSubmatch(body, -1) {
		calls = append(calls, string(m[1]))
	}
	return calls
}
