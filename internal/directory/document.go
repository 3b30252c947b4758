// Package directory reads the campus room document and derives the room
// list, the people list and the inline search index from it.
package directory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Document mirrors unified.json:
// polo → <campus> → edificio → <building> → piano → <floor> → []room.
type Document struct {
	Polo map[string]CampusDoc `json:"polo"`
}

type CampusDoc struct {
	Edificio map[string]BuildingDoc `json:"edificio"`
}

type BuildingDoc struct {
	Piano map[string][]RoomDoc `json:"piano"`
}

// RoomDoc is one record of a floor. Despite the name it also describes
// people: offices carry type "persona" and the person name in Ricerca.
type RoomDoc struct {
	Nome      string     `json:"nome"`
	ID        string     `json:"id"`
	Alias     StringList `json:"alias"`
	Type      StringList `json:"type"`
	Capienza  Capacity   `json:"capienza"`
	Ricerca   string     `json:"ricerca"`
	Room      string     `json:"room"`
	Categoria StringList `json:"categoria"`
}

// HasType reports whether the record is tagged with t.
func (r RoomDoc) HasType(t string) bool {
	for _, v := range r.Type {
		if v == t {
			return true
		}
	}
	return false
}

// StringList accepts either a JSON string or an array of strings.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = nil
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*l = nil
		} else {
			*l = StringList{s}
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*l = list
	return nil
}

// Capacity is the seat count as written in the document, number or string.
type Capacity string

func (c *Capacity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Capacity(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("capacity: %w", err)
		}
		*c = Capacity(n.String())
	}
	return nil
}

// Int returns the numeric capacity, zero when absent or not a number.
func (c Capacity) Int() int {
	n, err := strconv.Atoi(string(c))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// present mirrors the document's truthiness: "" and "0" are absent.
func (c Capacity) present() bool {
	return c != "" && c != "0"
}

var ErrEmptyDocument = errors.New("empty room document")

// ReadDocument loads and parses the document at path.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading room document: %w", err)
	}
	return ParseDocument(data)
}

func ParseDocument(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing room document: %w", err)
	}
	return &doc, nil
}

// Place is one record with its position in the document.
type Place struct {
	Campus   string
	Building string
	Floor    string
	Doc      RoomDoc
}

// Walk visits every record in a stable order: campuses and buildings by
// key, floors numerically, records in document order.
func (d *Document) Walk(fn func(Place)) {
	if d == nil {
		return
	}
	for _, campus := range sortedKeys(d.Polo) {
		buildings := d.Polo[campus].Edificio
		for _, building := range sortedKeys(buildings) {
			floors := buildings[building].Piano
			keys := sortedKeys(floors)
			sort.SliceStable(keys, func(i, j int) bool {
				return floorLess(keys[i], keys[j])
			})
			for _, floor := range keys {
				for _, r := range floors[floor] {
					fn(Place{Campus: campus, Building: building, Floor: floor, Doc: r})
				}
			}
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// floorLess orders "-1" < "0" < "1" < "10", non-numeric floors last.
func floorLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
