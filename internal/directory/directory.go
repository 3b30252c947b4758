package directory

import (
	"github.com/dove-unipi/dove/internal/core"
	"github.com/dove-unipi/dove/internal/professor"
)

// Directory is one immutable generation of the room document with
// everything derived from it.
type Directory struct {
	Rooms  []core.Room
	Index  []Entry
	People *professor.Directory
}

func New(doc *Document, opts Options) *Directory {
	return &Directory{
		Rooms:  Rooms(doc, opts),
		Index:  BuildIndex(doc, opts),
		People: professor.NewDirectory(People(doc, opts)),
	}
}

// Loader returns a cache loader that parses the document at path and
// derives a Directory from it.
func Loader(opts Options) func(path string) (*Directory, error) {
	return func(path string) (*Directory, error) {
		doc, err := ReadDocument(path)
		if err != nil {
			return nil, err
		}
		return New(doc, opts), nil
	}
}

// FindRoom looks a room up by short code, name or alias, ignoring case and
// spaces. "A" also finds "Aula A". An empty campus searches every campus.
func (d *Directory) FindRoom(campus, query string) (core.Room, bool) {
	if d == nil {
		return core.Room{}, false
	}
	want := core.NormalizeCode(query)
	if want == "" {
		return core.Room{}, false
	}
	candidates := []string{want, core.NormalizeCode("Aula " + query)}

	for _, c := range candidates {
		for _, r := range d.Rooms {
			if campus != "" && r.Campus != campus {
				continue
			}
			if roomHasCode(r, c) {
				return r, true
			}
		}
	}
	return core.Room{}, false
}

// Search runs Search over the index of this generation.
func (d *Directory) Search(query string) []Entry {
	if d == nil {
		return nil
	}
	return Search(d.Index, query)
}

// CampusRooms returns the rooms of one campus in document order.
func (d *Directory) CampusRooms(campus string) []core.Room {
	if d == nil {
		return nil
	}
	var out []core.Room
	for _, r := range d.Rooms {
		if campus == "" || r.Campus == campus {
			out = append(out, r)
		}
	}
	return out
}

func (d *Directory) Professors() *professor.Directory {
	if d == nil {
		return nil
	}
	return d.People
}

func roomHasCode(r core.Room, code string) bool {
	if core.NormalizeCode(r.Name) == code || core.NormalizeCode(r.ShortCode()) == code {
		return true
	}
	for _, a := range r.Aliases {
		if core.NormalizeCode(a) == code {
			return true
		}
	}
	return false
}
