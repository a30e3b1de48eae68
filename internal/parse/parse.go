// Package parse extracts C function definitions and call sites using
// tree-sitter. It implements the same two operations as the lexical scanner,
// so the call graph can be built from a real syntax tree instead of regular
// expressions.
package parse

import (
	"context"
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/cgraph/internal/lang"
	"github.com/phobologic/cgraph/internal/model"
)

type captureKind int

const (
	definitionCapture captureKind = iota
	referenceCapture
)

var captureMap = map[string]captureKind{
	"definition.function": definitionCapture,
	"reference.call":      referenceCapture,
}

// bodyWrapper turns a bare body back into a translation unit the C grammar
// accepts.
const (
	bodyPrefix = "void cgraph_body(void) {\n"
	bodySuffix = "\n}\n"
)

// Extractor finds definitions and calls with the tree-sitter C grammar.
// It is safe for concurrent use: parsers are pooled, the query is shared.
type Extractor struct {
	query   *sitter.Query
	parsers sync.Pool
}

// New returns an Extractor for C.
func New() (*Extractor, error) {
	l := lang.Languages[lang.C]
	q, err := l.GetTagQuery()
	if err != nil {
		return nil, err
	}
	e := &Extractor{query: q}
	e.parsers.New = func() any { return l.NewParser() }
	return e, nil
}

// Definitions returns every function definition in src ordered by position.
// Unlike the lexical scanner it recognizes any return type, including
// pointers and multi-line signatures.
func (e *Extractor) Definitions(src []byte) []model.Definition {
	var defs []model.Definition
	e.walk(src, func(kind captureKind, nameNode, node *sitter.Node) {
		if kind != definitionCapture {
			return
		}
		body := node.ChildByFieldName("body")
		if body == nil {
			return
		}
		start := int(body.StartByte()) + 1
		end := int(body.EndByte())
		if end > start && src[end-1] == '}' {
			end--
		}
		if end < start {
			end = start
		}
		defs = append(defs, model.Definition{
			Name:      lang.NodeText(nameNode, src),
			Line:      int(nameNode.StartPoint().Row) + 1,
			BodyStart: start,
			BodyEnd:   end,
		})
	})

	sort.SliceStable(defs, func(i, j int) bool {
		return defs[i].BodyStart < defs[j].BodyStart
	})
	return defs
}

// Calls returns the names of direct calls in body, left to right,
// duplicates kept. Calls through pointers or member expressions are skipped.
func (e *Extractor) Calls(body []byte) []string {
	src := make([]byte, 0, len(bodyPrefix)+len(body)+len(bodySuffix))
	src = append(src, bodyPrefix...)
	src = append(src, body...)
	src = append(src, bodySuffix...)

	type site struct {
		pos  uint32
		name string
	}
	var sites []site
	e.walk(src, func(kind captureKind, nameNode, _ *sitter.Node) {
		if kind != referenceCapture {
			return
		}
		sites = append(sites, site{pos: nameNode.StartByte(), name: lang.NodeText(nameNode, src)})
	})

	sort.SliceStable(sites, func(i, j int) bool {
		return sites[i].pos < sites[j].pos
	})

	var calls []string
	for _, s := range sites {
		calls = append(calls, s.name)
	}
	return calls
}

// walk parses src and invokes fn for every query match that has both a
// @name capture and a known pattern capture.
func (e *Extractor) walk(src []byte, fn func(kind captureKind, nameNode, node *sitter.Node)) {
	if len(src) == 0 {
		return
	}

	parser := e.parsers.Get().(*sitter.Parser)
	defer e.parsers.Put(parser)

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(e.query, tree.RootNode())

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, src)

		var nameNode, node *sitter.Node
		var kind captureKind
		var known bool

		for _, c := range match.Captures {
			cname := e.query.CaptureNameForId(c.Index)
			if cname == "name" {
				nameNode = c.Node
			} else if k, ok := captureMap[cname]; ok {
				kind, known = k, true
				node = c.Node
			}
		}

		if nameNode == nil || !known || node == nil {
			continue
		}
		fn(kind, nameNode, node)
	}
}
