// Package scan implements the lexical C extractor: a signature scanner, a
// brace-counting body extractor and a call-site scanner.
//
// The scanner does not preprocess, does not skip comments or string literals
// and does not resolve types. Only definitions whose return type is one of
// void, int, char, double, float or bool and whose parameter list sits on the
// same line as the name are recognized.
package scan

import (
	"bytes"
	"regexp"

	"github.com/phobologic/cgraph/internal/model"
)

var (
	signatureRe = regexp.MustCompile(`(?:void|int|char|double|float|bool)\s+(\w+)\s*\(.*?\)\s*\{`)
	macroRe     = regexp.MustCompile(`#define\s+(\w+)\s+(.*)`)
)

// Scanner is the regex and brace-counting extractor. The zero value is ready
// to use and safe for concurrent use.
type Scanner struct{}

// New returns a Scanner.
func New() *Scanner {
	return &Scanner{}
}

// Definitions returns every function definition in src in source order.
// The body of each definition starts right after its opening brace.
func (s *Scanner) Definitions(src []byte) []model.Definition {
	var defs []model.Definition
	for _, loc := range signatureRe.FindAllSubmatchIndex(src, -1) {
		start := loc[1]
		defs = append(defs, model.Definition{
			Name:      string(src[loc[2]:loc[3]]),
			Line:      lineOf(src, loc[2]),
			BodyStart: start,
			BodyEnd:   BodyEnd(src, start),
		})
	}
	return defs
}

// FunctionNames returns the names of all recognized definitions in src,
// without extracting bodies.
func FunctionNames(src []byte) []string {
	var names []string
	for _, m := range signatureRe.FindAllSubmatch(src, -1) {
		names = append(names, string(m[1]))
	}
	return names
}

// Macro is a `#define NAME VALUE` line.
type Macro struct {
	Name  string
	Value string
	Line  int
}

// Macros returns every `#define NAME VALUE` match in src in source order.
func Macros(src []byte) []Macro {
	var macros []Macro
	for _, loc := range macroRe.FindAllSubmatchIndex(src, -1) {
		macros = append(macros, Macro{
			Name:  string(src[loc[2]:loc[3]]),
			Value: string(bytes.TrimSpace(src[loc[4]:loc[5]])),
			Line:  lineOf(src, loc[2]),
		})
	}
	return macros
}

func lineOf(src []byte, offset int) int {
	return bytes.Count(src[:offset], []byte{'\n'}) + 1
}
