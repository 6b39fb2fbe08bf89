// Package interpolation finds the runtime placeholders of Contao strings:
// PHP sprintf conversions, insert tags and simple tokens. A translation that
// drops or invents one breaks the rendered page.
package interpolation

import (
	"cmp"
	"regexp"
	"slices"
)

// Placeholder is one interpolation variable and its byte range.
type Placeholder struct {
	Value      string
	Start, End int
}

var patterns = []*regexp.Regexp{
	regexp.MustCompile(`%(?:[0-9]+\$)?[-+0]*[0-9]*(?:\.[0-9]+)?[bcdeEfFgGosuxX]`), // %s, %1$s, %05.2f
	regexp.MustCompile(`%%`),                   // escaped percent literal
	regexp.MustCompile(`\{\{[^{}]+\}\}`),       // {{link::12}}
	regexp.MustCompile(`##[A-Za-z0-9_:.-]+##`), // ##token##
}

// Find returns the placeholders of text in order of appearance. Overlapping
// matches keep the earliest, longest one.
func Find(text string) []Placeholder {
	var all []Placeholder
	for _, p := range patterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			all = append(all, Placeholder{Value: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
		}
	}
	if len(all) == 0 {
		return nil
	}

	slices.SortFunc(all, func(a, b Placeholder) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return cmp.Compare(b.End-b.Start, a.End-a.Start)
	})

	filtered := all[:0]
	lastEnd := -1
	for _, m := range all {
		if m.Start >= lastEnd {
			filtered = append(filtered, m)
			lastEnd = m.End
		}
	}
	return filtered
}

// Mismatch lists placeholders that occur more often on one side.
type Mismatch struct {
	Missing []string // in source, not in target
	Extra   []string // in target, not in source
}

// Empty reports whether both sides use the same placeholders.
func (m Mismatch) Empty() bool {
	return len(m.Missing) == 0 && len(m.Extra) == 0
}

// Compare checks that target uses the placeholders of source, ignoring
// order. %% is not a variable and is left out of the comparison.
func Compare(source, target string) Mismatch {
	counts := make(map[string]int)
	for _, p := range Find(source) {
		if p.Value != "%%" {
			counts[p.Value]++
		}
	}
	for _, p := range Find(target) {
		if p.Value != "%%" {
			counts[p.Value]--
		}
	}

	var m Mismatch
	for value, n := range counts {
		for ; n > 0; n-- {
			m.Missing = append(m.Missing, value)
		}
		for ; n < 0; n++ {
			m.Extra = append(m.Extra, value)
		}
	}
	slices.Sort(m.Missing)
	slices.Sort(m.Extra)
	return m
}
