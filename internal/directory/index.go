package directory

import (
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dove-unipi/dove/internal/core"
	"github.com/dove-unipi/dove/internal/professor"
)

const (
	TypeArticle   = "article"
	ParseMarkdown = "Markdown"
	typePerson    = "persona"
	unknownRoom   = "Unknown Room"
)

// Record types that get a search entry.
var eligibleTypes = map[string]bool{
	"aula": true, "dipartimento": true, "laboratorio": true, "sala": true,
	"biblioteca": true, "studio": true, typePerson: true,
}

// Entry is an inline search result. The JSON shape is the one stored in
// data.json.
type Entry struct {
	Type        string         `json:"type"`
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Keywords    []string       `json:"keywords"`
	Description string         `json:"description"`
	Content     MessageContent `json:"input_message_content"`
}

type MessageContent struct {
	MessageText string `json:"message_text"`
	ParseMode   string `json:"parse_mode"`
}

// Options control link and label generation.
type Options struct {
	// Site the short links point to, e.g. "https://plumkewe.github.io/dove-unipi/"
	BaseURL string
	// Campus display names by key; missing keys are title-cased
	Titles map[string]string
}

func (o Options) campusTitle(key string) string {
	if t, ok := o.Titles[key]; ok && t != "" {
		return t
	}
	return cases.Title(language.Italian).String(key)
}

// ShortLink builds "<base>?p=<campus>&c=<normalized code>".
func (o Options) ShortLink(campus, code string) string {
	return o.BaseURL + "?p=" + url.QueryEscape(campus) + "&c=" + url.QueryEscape(core.NormalizeCode(code))
}

// BuildIndex generates the search entries for every eligible record.
// Records tagged both "persona" and a room type yield two entries.
func BuildIndex(doc *Document, opts Options) []Entry {
	var entries []Entry
	next := func() string {
		return strconv.Itoa(len(entries) + 1)
	}

	doc.Walk(func(p Place) {
		r := p.Doc
		if !eligible(r.Type) {
			return
		}
		location := "Polo " + opts.campusTitle(p.Campus) + " › Edificio " + strings.ToUpper(p.Building) + " › " + core.FloorLabel(p.Floor)

		if r.HasType(typePerson) {
			if e, ok := personEntry(p, location, opts); ok {
				e.ID = next()
				entries = append(entries, e)
			}
		}

		if !hasRoomType(r.Type) {
			return
		}
		code := roomShortCode(r)
		if code == "" {
			return
		}
		title := strings.TrimSpace(r.Nome)
		if title == "" {
			title = unknownRoom
		}
		desc := location
		if r.Capienza.present() {
			desc += "\nCapienza: " + string(r.Capienza)
		}
		entries = append(entries, Entry{
			Type:        TypeArticle,
			ID:          next(),
			Title:       title,
			Keywords:    keywords(r.Alias),
			Description: desc,
			Content: MessageContent{
				MessageText: "[" + title + "](" + opts.ShortLink(p.Campus, code) + ")",
				ParseMode:   ParseMarkdown,
			},
		})
	})
	return entries
}

func personEntry(p Place, location string, opts Options) (Entry, bool) {
	r := p.Doc
	name := strings.TrimSpace(r.Ricerca)
	if name == "" || core.NormalizeCode(name) == "" {
		return Entry{}, false
	}

	desc := location
	ref := r.Room
	if len(r.Alias) > 0 && r.Alias[0] != "" {
		ref = r.Alias[0]
	}
	if ref != "" {
		desc += " › Stanza " + ref
	}
	if len(r.Categoria) > 0 {
		desc += "\n" + strings.Join(r.Categoria, ", ")
	}

	return Entry{
		Type:        TypeArticle,
		Title:       name,
		Keywords:    keywords(r.Alias),
		Description: desc,
		Content: MessageContent{
			MessageText: "[" + name + "](" + opts.ShortLink(p.Campus, name) + ")",
			ParseMode:   ParseMarkdown,
		},
	}, true
}

// Search filters entries by case-insensitive substring on the title only.
// An empty query returns every entry.
func Search(entries []Entry, query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return entries
	}
	var out []Entry
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Title), q) {
			out = append(out, e)
		}
	}
	return out
}

// Rooms extracts the schedulable rooms of the document (people excluded).
func Rooms(doc *Document, opts Options) []core.Room {
	var rooms []core.Room
	doc.Walk(func(p Place) {
		r := p.Doc
		if !hasRoomType(r.Type) {
			return
		}
		name := strings.TrimSpace(r.Nome)
		if name == "" {
			name = strings.TrimSpace(r.ID)
		}
		if name == "" {
			return
		}
		room := core.Room{
			Name:     name,
			Building: p.Building,
			Floor:    p.Floor,
			Campus:   p.Campus,
			Capacity: r.Capienza.Int(),
			Aliases:  keywords(r.Alias),
		}
		if opts.BaseURL != "" {
			room.ExternalLink = opts.ShortLink(p.Campus, room.ShortCode())
		}
		rooms = append(rooms, room)
	})
	return rooms
}

// People lists the people of the document with their short links, in the
// shape the professor linker expects.
func People(doc *Document, opts Options) []professor.Person {
	var people []professor.Person
	doc.Walk(func(p Place) {
		if !p.Doc.HasType(typePerson) {
			return
		}
		name := strings.TrimSpace(p.Doc.Ricerca)
		if name == "" {
			return
		}
		people = append(people, professor.Person{Name: name, Link: opts.ShortLink(p.Campus, name)})
	})
	return people
}

func eligible(types []string) bool {
	for _, t := range types {
		if eligibleTypes[t] {
			return true
		}
	}
	return false
}

func hasRoomType(types []string) bool {
	for _, t := range types {
		if t != typePerson && eligibleTypes[t] {
			return true
		}
	}
	return false
}

// roomShortCode picks the first non-blank alias, then the name, then the id.
func roomShortCode(r RoomDoc) string {
	for _, a := range r.Alias {
		if a = strings.TrimSpace(a); a != "" {
			return a
		}
	}
	if n := strings.TrimSpace(r.Nome); n != "" {
		return n
	}
	return strings.TrimSpace(r.ID)
}

func keywords(aliases StringList) []string {
	out := make([]string, 0, len(aliases))
	for _, a := range aliases {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
