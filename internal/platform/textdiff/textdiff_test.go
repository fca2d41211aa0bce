package textdiff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinesIdentical(t *testing.T) {
	a := []string{"name: t1", "rego:", "package p"}
	markers := Lines(a, a)
	require.Len(t, markers, len(a))
	for _, m := range markers {
		assert.True(t, strings.HasPrefix(m, " "), "expected context marker, got %q", m)
	}
	assert.Empty(t, Changed(markers))
}

func TestLinesAddition(t *testing.T) {
	a := CanonicalLines(map[string]any{"name": "t1", "rego": "package p"})
	b := CanonicalLines(map[string]any{"name": "t1", "rego": "package p\nallow := true"})

	markers := Lines(a, b)
	assert.Contains(t, markers, " package p")
	assert.Contains(t, markers, "+allow := true")
	assert.Equal(t, []string{"+allow := true"}, Changed(markers))
}

func TestLinesSwapSymmetry(t *testing.T) {
	a := []string{"one", "two", "three"}
	b := []string{"one", "2", "three", "four"}

	forward := Lines(a, b)
	backward := Lines(b, a)

	flip := func(markers []string) []string {
		out := make([]string, 0, len(markers))
		for _, m := range markers {
			switch {
			case strings.HasPrefix(m, "+"):
				out = append(out, "-"+m[1:])
			case strings.HasPrefix(m, "-"):
				out = append(out, "+"+m[1:])
			default:
				out = append(out, m)
			}
		}
		return out
	}

	assert.ElementsMatch(t, forward, flip(backward))
}

func TestLinesDeterministic(t *testing.T) {
	a := CanonicalLines(map[string]any{"b": "2", "a": "1", "c": []any{"x", "y"}})
	b := CanonicalLines(map[string]any{"b": "2", "a": "changed", "c": []any{"x"}})

	first := Lines(a, b)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Lines(a, b))
	}
}

func TestCanonicalLinesSortedAndTyped(t *testing.T) {
	lines := CanonicalLines(map[string]any{
		"name":        "t1",
		"description": nil,
		"parameters":  []any{map[string]any{"name": "threshold", "type": "number"}},
		"version":     "1.0.0",
	})

	assert.Equal(t, []string{
		"description: null",
		"name:",
		"t1",
		`parameters: [{"name":"threshold","type":"number"}]`,
		"version:",
		"1.0.0",
	}, lines)
}

func TestCanonicalLinesTrailingNewlineInsignificant(t *testing.T) {
	bare := CanonicalLines(map[string]any{"rego": "package p"})
	terminated := CanonicalLines(map[string]any{"rego": "package p\n"})

	assert.Equal(t, []string{"rego:", "package p"}, bare)
	assert.Equal(t, bare, terminated)

	// A one-line policy growing a second line diffs as pure addition.
	grown := CanonicalLines(map[string]any{"rego": "package p\nallow := true"})
	assert.Equal(t, []string{"+allow := true"}, Changed(Lines(bare, grown)))
}

func TestCanonicalLinesExpandsPolicyBody(t *testing.T) {
	lines := CanonicalLines(map[string]any{
		"rego": "package p\n\nallow := true\n",
	})
	assert.Equal(t, []string{"rego:", "package p", "", "allow := true"}, lines)
}
