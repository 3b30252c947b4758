// Package match turns directory room names into the labels the calendar
// system may use for the same space.
package match

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	roomMarker = "Aula "
	labMarker  = "Laboratorio "
	numHolder  = "{num}"
)

// Rules is the per-campus configuration for variant generation.
type Rules struct {
	// Prefix as configured for the campus, e.g. "Fib"
	Prefix string
	// Lab code templates, each with a {num} placeholder
	LabTemplates []string
	// BareCodes adds the unprefixed identifier ("A") as a variant
	BareCodes bool
}

// ParseTemplates splits a pipe-delimited template list ("LAB {num}|L{num}").
func ParseTemplates(s string) []string {
	var out []string
	for _, t := range strings.Split(s, "|") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// BuildMatchVariants returns the candidate labels for roomName, in
// generation order and without duplicates. Case is preserved; use
// NewVariantSet for the comparison set.
//
//	"Aula A", "Fib"        -> "FIB A", "Fib A", "A"
//	"Laboratorio 3", "Fib" -> "FIB LAB 3", "Fib Lab 3", templates...
//	"Biblioteca", "Fib"    -> "FIB Biblioteca", "Fib Biblioteca", "Biblioteca"
func BuildMatchVariants(roomName string, rules Rules) []string {
	name := strings.TrimSpace(roomName)
	upper := strings.ToUpper(rules.Prefix)
	capitalized := capitalize(rules.Prefix)

	var out []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		for _, seen := range out {
			if seen == v {
				return
			}
		}
		out = append(out, v)
	}

	switch {
	case strings.HasPrefix(name, roomMarker):
		base := strings.TrimSpace(strings.TrimPrefix(name, roomMarker))
		add(join(upper, base))
		add(join(capitalized, base))
		if rules.BareCodes {
			add(base)
		}
	case strings.HasPrefix(name, labMarker):
		num := strings.TrimSpace(strings.TrimPrefix(name, labMarker))
		add(join(upper, "LAB "+num))
		add(join(capitalized, "Lab "+num))
		for _, tmpl := range rules.LabTemplates {
			add(strings.ReplaceAll(tmpl, numHolder, num))
		}
	default:
		add(join(upper, name))
		add(join(capitalized, name))
		if rules.BareCodes {
			add(name)
		}
	}
	return out
}

// VariantSet is the upper-cased comparison set. Matching is exact string
// equality: "A" must never match inside "FIB AB".
type VariantSet map[string]struct{}

func NewVariantSet(variants []string) VariantSet {
	set := make(VariantSet, len(variants))
	for _, v := range variants {
		set[normalize(v)] = struct{}{}
	}
	return set
}

// Matches reports whether label equals one of the variants, ignoring case
// and surrounding blanks.
func (s VariantSet) Matches(label string) bool {
	key := normalize(label)
	if key == "" {
		return false
	}
	_, ok := s[key]
	return ok
}

func normalize(v string) string {
	return strings.ToUpper(strings.Join(strings.Fields(v), " "))
}

func join(prefix, rest string) string {
	if prefix == "" {
		return rest
	}
	return prefix + " " + rest
}

// capitalize returns s with the first rune upper-cased and the rest lower-cased.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
