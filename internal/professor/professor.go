// Package professor attaches directory links to teacher names found in
// calendar events.
package professor

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Particles that open a multi-word surname ("Del Corso", "Van Rossum").
var particles = map[string]bool{
	"del": true, "della": true, "de": true, "di": true, "lo": true, "la": true,
	"le": true, "van": true, "von": true, "san": true, "da": true,
}

// Person is a directory entry. Name follows the directory order, surname
// first ("Del Corso Gianna").
type Person struct {
	Name string
	Link string
}

// Match is one resolved teacher. Link and Label are empty when no directory
// entry matched.
type Match struct {
	// Display form of the teacher name as written by the calendar
	Name string
	// Surname in capitals, used as link text
	Label string
	Link  string
}

func (m Match) Linked() bool {
	return m.Link != ""
}

type entry struct {
	person Person
	tokens []string
}

// Directory is an immutable lookup table. Build a new one when the
// underlying document changes.
type Directory struct {
	byName  map[string]int
	entries []entry
}

func NewDirectory(people []Person) *Directory {
	d := &Directory{byName: make(map[string]int, len(people))}
	for _, p := range people {
		toks := tokenize(p.Name)
		if len(toks) == 0 {
			continue
		}
		key := strings.Join(toks, " ")
		if _, dup := d.byName[key]; dup {
			continue
		}
		d.byName[key] = len(d.entries)
		d.entries = append(d.entries, entry{person: p, tokens: toks})
	}
	return d
}

func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Resolve splits a comma-separated teacher string and matches every name.
func (d *Directory) Resolve(teachers string) []Match {
	var out []Match
	for _, name := range strings.Split(teachers, ",") {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		m := Match{Name: displayName(name)}
		if p, ok := d.Lookup(name); ok {
			m.Label = Surname(p.Name)
			m.Link = p.Link
		}
		out = append(out, m)
	}
	return out
}

// Lookup finds the directory entry for a single teacher name. Rules are
// tried in order and the first hit wins; within a rule, directory order
// breaks ties.
//
//  1. exact full name, ignoring case
//  2. every input token appears in the entry; a lone token must be the
//     entry surname
//  3. every entry token appears in the input, with at least two tokens
func (d *Directory) Lookup(name string) (Person, bool) {
	if d == nil {
		return Person{}, false
	}
	in := tokenize(name)
	if len(in) == 0 {
		return Person{}, false
	}

	if i, ok := d.byName[strings.Join(in, " ")]; ok {
		return d.entries[i].person, true
	}

	for _, e := range d.entries {
		if !subset(in, e.tokens) {
			continue
		}
		if len(in) >= 2 || in[0] == e.tokens[0] && !particles[in[0]] {
			return e.person, true
		}
	}

	for _, e := range d.entries {
		if len(e.tokens) >= 2 && subset(e.tokens, in) {
			return e.person, true
		}
	}
	return Person{}, false
}

// Surname returns the link label for a directory name: "DEL CORSO" for
// "Del Corso Gianna", "ROSSI" for "Rossi Mario".
func Surname(name string) string {
	toks := strings.Fields(name)
	switch {
	case len(toks) == 0:
		return ""
	case len(toks) >= 2 && particles[strings.ToLower(toks[0])]:
		return strings.ToUpper(toks[0] + " " + toks[1])
	default:
		return strings.ToUpper(toks[0])
	}
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

// subset reports whether every token of a is in b.
func subset(a, b []string) bool {
	for _, x := range a {
		found := false
		for _, y := range b {
			if x == y {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// displayName title-cases names the calendar shouts or whispers
// ("ROSSI MARIO", "rossi mario") and leaves mixed case alone.
func displayName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name != strings.ToUpper(name) && name != strings.ToLower(name) {
		return name
	}
	// Casers are stateful and must not be shared between goroutines.
	return cases.Title(language.Italian).String(name)
}
