package parse

import (
	"reflect"
	"testing"

	"github.com/phobologic/cgraph/internal/model"
)

func setup(t *testing.T) *Extractor {
	t.Helper()
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func names(defs []model.Definition) []string {
	var out []string
	for _, d := range defs {
		out = append(out, d.Name)
	}
	return out
}

func TestDefinitions(t *testing.T) {
	t.Parallel()
	e := setup(t)

	source := `int helper(int x) { return compute(x); }
char *dup(const char *s) {
	return copy(s);
}
static unsigned long
hash(void)
{
	return 0;
}
int prototype(int a);
`
	defs := e.Definitions([]byte(source))

	want := []string{"helper", "dup", "hash"}
	if got := names(defs); !reflect.DeepEqual(got, want) {
		t.Fatalf("names = %v, want %v", got, want)
	}

	lines := []int{1, 2, 6}
	for i, d := range defs {
		if d.Line != lines[i] {
			t.Errorf("%s line = %d, want %d", d.Name, d.Line, lines[i])
		}
	}

	if body := string(defs[0].Body([]byte(source))); body != " return compute(x); " {
		t.Errorf("helper body = %q", body)
	}
}

func TestDefinitionsEmpty(t *testing.T) {
	t.Parallel()
	e := setup(t)

	if defs := e.Definitions(nil); defs != nil {
		t.Errorf("expected nil, got %v", defs)
	}
	if defs := e.Definitions([]byte("extern int counter;\n")); len(defs) != 0 {
		t.Errorf("expected no definitions, got %v", defs)
	}
}

func TestCalls(t *testing.T) {
	t.Parallel()
	e := setup(t)

	tests := []struct {
		name string
		body string
		want []string
	}{
		{"return expression", "return compute(x) + other(1, 2);", []string{"compute", "other"}},
		{"literal arguments", `helper(5); printf("done");`, []string{"helper", "printf"}},
		{"nested", "return outer(inner(1));", []string{"outer", "inner"}},
		{"keywords are not calls", "if (x > 0) { return 1; } while (x) { x--; }", nil},
		{"sizeof is not a call", "return sizeof(int);", nil},
		{"member call skipped", "ops->run(1); run(2);", []string{"run"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := e.Calls([]byte(tt.body))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Calls(%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}

func TestDefinitionsFeedCalls(t *testing.T) {
	t.Parallel()
	e := setup(t)

	source := []byte(`void main_loop(void) {
	helper(5);
	printf("done");
}
`)
	defs := e.Definitions(source)
	if len(defs) != 1 {
		t.Fatalf("expected 1 def, got %d", len(defs))
	}
	got := e.Calls(defs[0].Body(source))
	want := []string{"helper", "printf"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}
