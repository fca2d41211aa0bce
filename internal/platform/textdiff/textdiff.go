package textdiff

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Lines compares two line slices and returns every line prefixed with a
// change marker: "+" added, "-" removed, " " unchanged. Replacements are
// emitted removals-first so swapping the inputs swaps the +/- roles.
func Lines(a, b []string) []string {
	matcher := difflib.NewMatcher(a, b)
	out := make([]string, 0, len(a)+len(b))
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			for _, line := range a[op.I1:op.I2] {
				out = append(out, " "+line)
			}
		case 'd':
			for _, line := range a[op.I1:op.I2] {
				out = append(out, "-"+line)
			}
		case 'i':
			for _, line := range b[op.J1:op.J2] {
				out = append(out, "+"+line)
			}
		case 'r':
			for _, line := range a[op.I1:op.I2] {
				out = append(out, "-"+line)
			}
			for _, line := range b[op.J1:op.J2] {
				out = append(out, "+"+line)
			}
		}
	}
	return out
}

// Changed strips unchanged context lines from a marker sequence.
func Changed(markers []string) []string {
	out := make([]string, 0, len(markers))
	for _, m := range markers {
		if strings.HasPrefix(m, "+") || strings.HasPrefix(m, "-") {
			out = append(out, m)
		}
	}
	return out
}

// CanonicalLines renders a snapshot as a stable textual form: keys sorted,
// string values expanded into their raw lines under a bare "key:" header,
// everything else as a single "key: value" line. Expanding every string,
// one-liners included, keeps the form self-consistent: "package p" and
// "package p\n" canonicalize identically, so growing a one-line policy
// diffs as an added line rather than a rewritten value.
func CanonicalLines(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := data[k].(type) {
		case string:
			lines = append(lines, k+":")
			if v != "" {
				lines = append(lines, strings.Split(strings.TrimRight(v, "\n"), "\n")...)
			}
		case nil:
			lines = append(lines, k+": null")
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				lines = append(lines, fmt.Sprintf("%s: %v", k, v))
				continue
			}
			lines = append(lines, fmt.Sprintf("%s: %s", k, string(raw)))
		}
	}
	return lines
}
