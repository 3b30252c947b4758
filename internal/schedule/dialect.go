package schedule

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dove-unipi/dove/internal/util"
)

// Dialect is the markup understood by the surface showing the text.
//
// Bold, Code and Link take raw text; Escape is for text outside them.
type Dialect interface {
	Bold(s string) string
	// Code renders s in a fixed-width font
	Code(s string) string
	Link(text, url string) string
	// Escape neutralizes markup characters in free text
	Escape(s string) string
}

// Markdown is Telegram's legacy "Markdown" parse mode.
type Markdown struct{}

var markdownEscaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

// Legacy Markdown has no escapes inside an entity: only the character that
// would close it has to go.
var (
	boldText = strings.NewReplacer("*", "")
	linkText = strings.NewReplacer("[", "(", "]", ")")
)

func (Markdown) Bold(s string) string   { return "*" + boldText.Replace(s) + "*" }
func (Markdown) Code(s string) string   { return "`" + strings.ReplaceAll(s, "`", "'") + "`" }
func (Markdown) Escape(s string) string { return markdownEscaper.Replace(s) }

func (Markdown) Link(text, url string) string {
	if url == "" {
		return markdownEscaper.Replace(text)
	}
	// ")" ends the URL in legacy Markdown.
	url = strings.NewReplacer(")", "%29", " ", "%20").Replace(url)
	return "[" + linkText.Replace(text) + "](" + url + ")"
}

// Terminal renders for a TTY: lipgloss bold and OSC 8 links.
type Terminal struct{}

var (
	boldStyle = lipgloss.NewStyle().Bold(true)
	codeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
)

func (Terminal) Bold(s string) string         { return boldStyle.Render(s) }
func (Terminal) Code(s string) string         { return codeStyle.Render(s) }
func (Terminal) Link(text, url string) string { return util.MakeHyperlink(url, text) }
func (Terminal) Escape(s string) string       { return s }

// Plain drops every markup; used by the JSON API and in logs.
type Plain struct{}

func (Plain) Bold(s string) string       { return s }
func (Plain) Code(s string) string       { return s }
func (Plain) Link(text, _ string) string { return text }
func (Plain) Escape(s string) string     { return s }
