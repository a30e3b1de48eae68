package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bodies(src string, s *Scanner) map[string]string {
	out := make(map[string]string)
	for _, d := range s.Definitions([]byte(src)) {
		out[d.Name] = string(d.Body([]byte(src)))
	}
	return out
}

func TestDefinitions(t *testing.T) {
	t.Parallel()

	src := "int helper(int x) { return compute(x); }\n" +
		"int compute(int y) { return y * 2; }\n"

	defs := New().Definitions([]byte(src))
	require.Len(t, defs, 2)

	assert.Equal(t, "helper", defs[0].Name)
	assert.Equal(t, 1, defs[0].Line)
	assert.Equal(t, " return compute(x); ", string(defs[0].Body([]byte(src))))

	assert.Equal(t, "compute", defs[1].Name)
	assert.Equal(t, 2, defs[1].Line)
	assert.Equal(t, " return y * 2; ", string(defs[1].Body([]byte(src))))
}

func TestDefinitionsReturnTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"void", "void run(void) {}", []string{"run"}},
		{"char", "char next(int i) {}", []string{"next"}},
		{"double", "double avg(double a, double b) {}", []string{"avg"}},
		{"float", "float half(float f) {}", []string{"half"}},
		{"bool", "bool ok() {}", []string{"ok"}},
		{"brace on next line", "int main(void)\n{\n}", []string{"main"}},
		{"pointer return", "char *dup(const char *s) {}", nil},
		{"unsigned long", "unsigned long hash(void) {}", nil},
		{"struct return", "struct vec origin(void) {}", nil},
		{"params across lines", "int add(int a,\n        int b) {}", nil},
		{"prototype only", "int add(int a, int b);", nil},
		{"keyword suffix", "uint count(void) {}", []string{"count"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got []string
			for _, d := range New().Definitions([]byte(tt.src)) {
				got = append(got, d.Name)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, FunctionNames([]byte(tt.src)))
		})
	}
}

func TestDefinitionsNestedBraces(t *testing.T) {
	t.Parallel()

	src := `void loop(int n) {
	for (int i = 0; i < n; i++) {
		if (i) { step(i); }
	}
}
void after(void) { done(); }
`
	got := bodies(src, New())
	require.Contains(t, got, "loop")
	assert.Contains(t, got["loop"], "step(i);")
	assert.NotContains(t, got["loop"], "done()")
	assert.Equal(t, " done(); ", got["after"])
}

func TestBodyEnd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		src   string
		start int
		want  int
	}{
		{"empty body", "{}", 1, 1},
		{"nested", "{ { } }x", 1, 6},
		{"unbalanced runs to end", "{ { }", 1, 5},
		{"start at end", "{", 1, 1},
		{"string literal brace counts", `{ puts("}"); }`, 1, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, BodyEnd([]byte(tt.src), tt.start))
		})
	}
}

func TestDefinitionUnterminatedBody(t *testing.T) {
	t.Parallel()

	src := "void broken(void) { call_a(); if (x) { call_b();"
	defs := New().Definitions([]byte(src))
	require.Len(t, defs, 1)
	assert.Equal(t, len(src), defs[0].BodyEnd)
	assert.Equal(t, []string{"call_a", "if", "call_b"}, New().Calls(defs[0].Body([]byte(src))))
}

func TestCalls(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want []string
	}{
		{"none", "return 0;", nil},
		{"single", "helper(5);", []string{"helper"}},
		{"order and duplicates", "a(); b(); a();", []string{"a", "b", "a"}},
		{"space before paren", "compute (x);", []string{"compute"}},
		{"nested", "outer(inner(1));", []string{"outer", "inner"}},
		{"keywords kept", "if (x) f(); while (y) {} for (;;) {}", []string{"if", "f", "while", "for"}},
		{"sizeof", "n = sizeof(int);", []string{"sizeof"}},
		{"string literal", `puts("g(1)");`, []string{"puts", "g"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, New().Calls([]byte(tt.body)))
		})
	}
}

func TestMacros(t *testing.T) {
	t.Parallel()

	src := "#include <stdio.h>\n#define MAX 10\n#define SQUARE(x) ((x) * (x))\n#define GREETING \"hi\"\nint y;\n"
	macros := Macros([]byte(src))
	require.Len(t, macros, 2)

	assert.Equal(t, Macro{Name: "MAX", Value: "10", Line: 2}, macros[0])
	// Function-like macros have no whitespace after the name and are skipped.
	assert.Equal(t, Macro{Name: "GREETING", Value: `"hi"`, Line: 4}, macros[1])
}

func TestFunctionNamesNoDefinitions(t *testing.T) {
	t.Parallel()
	assert.Empty(t, FunctionNames([]byte("/* header only */\nextern int x;\n")))
}
