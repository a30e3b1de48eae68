package lang

import (
	"github.com/smacker/go-tree-sitter/c"
)

// C is the only language cgraph scans. Headers are not included: the call
// graph is built from translation units.
const C = "c"

func init() {
	Languages[C] = &Language{
		Name:       C,
		Extensions: []string{".c"},
		lang:       c.GetLanguage(),
	}
}
