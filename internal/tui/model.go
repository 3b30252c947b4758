package tui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/dove-unipi/dove/internal/core"
	"github.com/dove-unipi/dove/internal/directory"
	"github.com/dove-unipi/dove/internal/lookup"
	"github.com/dove-unipi/dove/internal/occupancy"
	"github.com/dove-unipi/dove/internal/schedule"
	"github.com/dove-unipi/dove/internal/util"
)

// KeyMap defines the keybindings for the TUI
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Open       key.Binding
	Refresh    key.Binding
	NextDay    key.Binding
	PrevDay    key.Binding
	Today      key.Binding
	Tab        key.Binding
	Quit       key.Binding
	Help       key.Binding
}

var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑", "su"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓", "giù"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("ctrl+u", "scorri su"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("ctrl+d", "scorri giù"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter", "m"),
		key.WithHelp("enter", "mappa"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "aggiorna"),
	),
	NextDay: key.NewBinding(
		key.WithKeys("right"),
		key.WithHelp("→", "giorno dopo"),
	),
	PrevDay: key.NewBinding(
		key.WithKeys("left"),
		key.WithHelp("←", "giorno prima"),
	),
	Today: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "oggi"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "pannello"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "esci"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "aiuto"),
	),
}

// Panel focus for compact mode
type PanelFocus int

const (
	FocusList PanelFocus = iota
	FocusDetail
)

// Source is the part of lookup.Service the browser needs.
type Source interface {
	Day(ctx context.Context, room lookup.Room, date time.Time) ([]occupancy.ResolvedEvent, error)
	Refresh(campus core.Campus, day time.Time)
	Directory() *directory.Directory
	Now() time.Time
}

// Model browses the day schedule of one room.
type Model struct {
	room          lookup.Room
	src           Source
	events        []occupancy.ResolvedEvent
	selectedIdx   int
	currentDate   time.Time
	width         int
	height        int
	listWidth     int
	detailWidth   int
	contentHeight int
	keys          KeyMap
	loading       bool
	err           error
	listView      viewport.Model
	detailView    viewport.Model
	viewportReady bool
	compactMode   bool
	focusedPanel  PanelFocus
	showHelp      bool
}

func NewModel(src Source, room lookup.Room, date time.Time) Model {
	return Model{
		room:        room,
		src:         src,
		currentDate: date.In(room.Campus.Location),
		keys:        DefaultKeyMap,
		loading:     true,
	}
}

func (m Model) now() time.Time {
	return m.src.Now().In(m.room.Campus.Location)
}

func (m Model) isToday() bool {
	now := m.now()
	return m.currentDate.Year() == now.Year() &&
		m.currentDate.Month() == now.Month() &&
		m.currentDate.Day() == now.Day()
}

// nowIdx is where the NOW marker sits: the first event starting after now,
// len(events) when every event has started. Only meaningful on today.
func (m Model) nowIdx() int {
	now := m.now()
	for i, ev := range m.events {
		if ev.Start.After(now) {
			return i
		}
	}
	return len(m.events)
}

// findNowEventIdx selects the event in progress or the next one on today's
// view, the first event otherwise.
func (m Model) findNowEventIdx() int {
	if len(m.events) == 0 || !m.isToday() {
		return 0
	}
	now := m.now()
	for i, ev := range m.events {
		if !now.Before(ev.Start) && now.Before(ev.End) {
			return i
		}
	}
	return min(m.nowIdx(), len(m.events)-1)
}

func (m *Model) scrollToNow() {
	if !m.viewportReady || len(m.events) == 0 {
		return
	}
	if !m.isToday() {
		m.listView.GotoTop()
		return
	}
	m.listView.SetYOffset(max(m.nowIdx()-2, 0))
}

// Messages
type eventsLoadedMsg struct {
	date   time.Time
	events []occupancy.ResolvedEvent
	err    error
}

type tickMsg time.Time

// Commands
func (m Model) loadEvents() tea.Cmd {
	src, room, date := m.src, m.room, m.currentDate
	return func() tea.Msg {
		events, err := src.Day(context.Background(), room, date)
		return eventsLoadedMsg{date: date, events: events, err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadEvents(), tickCmd())
}

// calculateLayout calculates responsive layout dimensions
func (m *Model) calculateLayout() {
	height := max(m.height, 10)

	// Header: ~3 lines, Help: ~2 lines, Padding: ~2 lines
	m.contentHeight = max(height-7, 5)

	m.compactMode = m.width < 70
	if m.compactMode {
		m.listWidth = max(m.width-4, 20)
		m.detailWidth = m.listWidth
		return
	}

	switch {
	case m.width < 100:
		m.listWidth = m.width * 45 / 100
	case m.width < 140:
		m.listWidth = m.width * 40 / 100
	default:
		m.listWidth = min(m.width*35/100, 60)
	}
	m.listWidth = max(m.listWidth, 32)
	m.detailWidth = max(m.width-m.listWidth-5, 35)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.calculateLayout()

		listW, listH := max(m.listWidth-4, 10), max(m.contentHeight-4, 1)
		detailW, detailH := max(m.detailWidth-4, 10), max(m.contentHeight-4, 1)
		if !m.viewportReady {
			m.listView = viewport.New(listW, listH)
			m.listView.Style = lipgloss.NewStyle()
			m.detailView = viewport.New(detailW, detailH)
			m.detailView.Style = lipgloss.NewStyle()
			m.viewportReady = true
		} else {
			m.listView.Width, m.listView.Height = listW, listH
			m.detailView.Width, m.detailView.Height = detailW, detailH
		}
		m.updateListContent()
		m.updateDetailContent()
		return m, nil

	case eventsLoadedMsg:
		// A late answer for a day the user already left.
		if !msg.date.Equal(m.currentDate) {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		m.events = msg.events
		m.selectedIdx = m.findNowEventIdx()
		m.updateListContent()
		m.updateDetailContent()
		m.scrollToNow()
		return m, nil

	case tickMsg:
		m.updateListContent()
		m.updateDetailContent()
		return m, tickCmd()

	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return m, nil

		case key.Matches(msg, m.keys.Up):
			if m.selectedIdx > 0 {
				m.selectedIdx--
				m.selectionChanged()
			}
			return m, nil

		case key.Matches(msg, m.keys.Down):
			if m.selectedIdx < len(m.events)-1 {
				m.selectedIdx++
				m.selectionChanged()
			}
			return m, nil

		case key.Matches(msg, m.keys.ScrollUp):
			if m.compactMode && m.focusedPanel == FocusList {
				m.listView.ViewUp()
			} else {
				m.detailView.ViewUp()
			}
			return m, nil

		case key.Matches(msg, m.keys.ScrollDown):
			if m.compactMode && m.focusedPanel == FocusList {
				m.listView.ViewDown()
			} else {
				m.detailView.ViewDown()
			}
			return m, nil

		case key.Matches(msg, m.keys.NextDay):
			return m.goTo(m.currentDate.AddDate(0, 0, 1))

		case key.Matches(msg, m.keys.PrevDay):
			return m.goTo(m.currentDate.AddDate(0, 0, -1))

		case key.Matches(msg, m.keys.Today):
			if m.isToday() {
				m.selectedIdx = m.findNowEventIdx()
				m.selectionChanged()
				m.scrollToNow()
				return m, nil
			}
			now := m.now()
			return m.goTo(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()))

		case key.Matches(msg, m.keys.Tab):
			if m.focusedPanel == FocusList {
				m.focusedPanel = FocusDetail
			} else {
				m.focusedPanel = FocusList
			}
			return m, nil

		case key.Matches(msg, m.keys.Refresh):
			m.src.Refresh(m.room.Campus, m.currentDate)
			m.loading = true
			return m, m.loadEvents()

		case key.Matches(msg, m.keys.Open):
			if m.room.ExternalLink != "" {
				return m, openURL(m.room.ExternalLink)
			}
			return m, nil
		}
	}
	return m, nil
}

func (m Model) goTo(date time.Time) (tea.Model, tea.Cmd) {
	m.currentDate = date
	m.loading = true
	m.events = nil
	m.selectedIdx = 0
	return m, m.loadEvents()
}

func (m *Model) selectionChanged() {
	m.updateListContent()
	m.scrollListToSelection()
	m.updateDetailContent()
	m.detailView.GotoTop()
}

func (m Model) View() string {
	if m.width == 0 {
		return "Caricamento..."
	}

	var content string
	switch {
	case m.loading:
		content = lipgloss.NewStyle().
			Width(m.width-4).
			Height(m.contentHeight).
			Align(lipgloss.Center, lipgloss.Center).
			Render("Caricamento eventi...")
	case m.err != nil:
		content = lipgloss.NewStyle().
			Width(m.width - 4).
			Height(m.contentHeight).
			Foreground(errorColor).
			Render(schedule.UnknownStatus)
	case m.compactMode:
		switch {
		case m.showHelp:
			content = m.renderHelpPanel()
		case m.focusedPanel == FocusList:
			content = m.renderListPanel()
		default:
			content = m.renderDetailPanel()
		}
	default:
		right := m.renderDetailPanel()
		if m.showHelp {
			right = m.renderHelpPanel()
		}
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.renderListPanel(), " ", right)
	}

	return AppStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), content, m.renderHelp()),
	)
}

func (m Model) renderHeader() string {
	dateStr := schedule.DayLabel(m.currentDate)
	if m.isToday() {
		dateStr = "Oggi • " + dateStr
	}

	title := HeaderStyle.Render("📍 " + m.room.Name)
	date := lipgloss.NewStyle().Foreground(mutedColor).Render(dateStr)

	panelIndicator := ""
	if m.compactMode {
		label := " [Eventi]"
		if m.focusedPanel == FocusDetail {
			label = " [Dettagli]"
		}
		panelIndicator = lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Render(label)
	}

	line := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", date, panelIndicator)
	return lipgloss.JoinVertical(lipgloss.Left,
		line,
		PathStyle.Render(m.room.Path(m.room.Campus.Title)),
		m.renderRoomState(),
	)
}

// renderRoomState is the free/busy badge, shown only for today once loaded.
func (m Model) renderRoomState() string {
	if !m.isToday() || m.loading {
		return ""
	}
	if m.err != nil {
		return UnknownBadgeStyle.Render("Stato sconosciuto")
	}
	now := m.now()
	for _, ev := range m.events {
		if !now.Before(ev.Start) && now.Before(ev.End) {
			return BusyBadgeStyle.Render("Occupata fino alle " + ev.End.In(now.Location()).Format("15:04"))
		}
	}
	if i := m.nowIdx(); i < len(m.events) {
		return FreeBadgeStyle.Render("Libera fino alle " + m.events[i].Start.In(now.Location()).Format("15:04"))
	}
	return FreeBadgeStyle.Render("Libera per il resto della giornata")
}

func (m *Model) updateListContent() {
	if !m.viewportReady {
		return
	}

	if len(m.events) == 0 {
		m.listView.SetContent(NormalItemStyle.Render(schedule.NoEvents))
		return
	}

	var items []string
	nowAt := -1
	if m.isToday() {
		nowAt = m.nowIdx()
	}
	for i, ev := range m.events {
		if i == nowAt {
			items = append(items, m.renderNowDivider())
		}
		items = append(items, m.renderListItem(ev, i == m.selectedIdx, m.listView.Width))
	}
	if nowAt == len(m.events) {
		items = append(items, m.renderNowDivider())
	}
	m.listView.SetContent(strings.Join(items, "\n"))
}

func (m Model) renderNowDivider() string {
	width := m.listView.Width
	nowText := fmt.Sprintf(" ▶ ORA %s ◀ ", m.now().Format("15:04"))

	textLen := lipgloss.Width(nowText)
	leftPad := max((width-textLen)/2, 0)
	rightPad := max(width-textLen-leftPad, 0)

	line := strings.Repeat("─", leftPad) + nowText + strings.Repeat("─", rightPad)
	return lipgloss.NewStyle().Foreground(accentColor).Bold(true).Render(line)
}

// scrollListToSelection keeps the selected item visible, counting the NOW
// divider line when it sits above the selection.
func (m *Model) scrollListToSelection() {
	if !m.viewportReady || len(m.events) == 0 {
		return
	}
	line := m.selectedIdx
	if m.isToday() && m.selectedIdx >= m.nowIdx() {
		line++
	}

	top := m.listView.YOffset
	bottom := top + m.listView.Height
	if line < top {
		m.listView.SetYOffset(line)
	}
	if line+1 > bottom {
		m.listView.SetYOffset(line + 1 - m.listView.Height)
	}
}

func (m Model) renderListPanel() string {
	if len(m.events) == 0 {
		return ListPanelStyle.Width(m.listWidth).Height(m.contentHeight).Render(
			lipgloss.NewStyle().Foreground(mutedColor).Render(schedule.NoEvents),
		)
	}

	scrollInfo := ""
	if m.viewportReady && m.listView.TotalLineCount() > m.listView.Height {
		scrollInfo = lipgloss.NewStyle().
			Foreground(mutedColor).
			Render(fmt.Sprintf(" (%d/%d)", m.selectedIdx+1, len(m.events)))
	}

	header := lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Render("Eventi") + scrollInfo
	return ListPanelStyle.Width(m.listWidth).Height(m.contentHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, m.listView.View()),
	)
}

func (m Model) renderListItem(ev occupancy.ResolvedEvent, selected bool, maxWidth int) string {
	now := m.now()
	isPast := !ev.End.After(now)
	inProgress := !now.Before(ev.Start) && now.Before(ev.End)

	timeStr := formatRange(ev.Start, ev.End, now.Location())
	if isPast {
		timeStr = "✓ " + timeStr
	}
	timeStyled := TimeStyle.Render(timeStr)
	if isPast {
		timeStyled = PastTimeStyle.Render(timeStr)
	}

	// Time (14) + duration (7) + badge (~3) + spacing
	title := util.TruncateText(ev.Title, max(maxWidth-28, 10))
	badge := ""
	if inProgress {
		badge = " 🔴"
	}

	line := fmt.Sprintf("%s %s %s%s", timeStyled, DurationStyle.Render(formatDuration(ev.End.Sub(ev.Start))), title, badge)
	switch {
	case selected && isPast:
		return SelectedPastStyle.Render(line)
	case selected:
		return SelectedItemStyle.Render(line)
	case isPast:
		return PastItemStyle.Render(line)
	}
	return NormalItemStyle.Render(line)
}

func (m *Model) updateDetailContent() {
	if len(m.events) == 0 || !m.viewportReady {
		return
	}

	ev := m.events[m.selectedIdx]
	width := m.detailView.Width
	now := m.now()
	var lines []string

	lines = append(lines, TitleStyle.Render(ansi.Wordwrap(ev.Title, width, "")), "")
	lines = append(lines, renderField("🕐 Quando", schedule.DayLabel(ev.Start.In(now.Location()))+", "+formatRange(ev.Start, ev.End, now.Location())))
	lines = append(lines, renderField("⏱️  Durata", formatDuration(ev.End.Sub(ev.Start))))

	switch {
	case !ev.End.After(now):
		lines = append(lines, "", lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true).
			Render(fmt.Sprintf("✓ Terminato da %s", formatDuration(now.Sub(ev.End)))))
	case !now.Before(ev.Start):
		lines = append(lines, "", InProgressStyle.Render(fmt.Sprintf("🔴 IN CORSO • mancano %s", formatDuration(ev.End.Sub(now)))))
	default:
		lines = append(lines, "", lipgloss.NewStyle().Foreground(accentColor).Render(fmt.Sprintf("⏳ Inizia tra %s", formatDuration(ev.Start.Sub(now)))))
	}

	if ev.Teachers != "" {
		lines = append(lines, "", LabelStyle.Render("👤 Docenti"))
		maxLen := width - 5 // "   • " prefix
		for _, t := range m.src.Directory().Professors().Resolve(ev.Teachers) {
			name := util.TruncateText(t.Name, maxLen)
			if t.Linked() {
				name = util.MakeHyperlink(t.Link, LinkStyle.Render(name))
			}
			lines = append(lines, "   • "+name)
		}
	}

	if m.room.ExternalLink != "" {
		lines = append(lines, "")
		label := "🗺️  Mappa"
		maxLen := width - lipgloss.Width(LabelStyle.Render(label)) - 1
		link := util.MakeHyperlink(m.room.ExternalLink, LinkStyle.Render(util.TruncateText(m.room.ExternalLink, maxLen)))
		lines = append(lines, renderField(label, link))
	}

	m.detailView.SetContent(strings.Join(lines, "\n"))
}

func (m Model) renderDetailPanel() string {
	if len(m.events) == 0 {
		return DetailPanelStyle.Width(m.detailWidth).Height(m.contentHeight).Render(
			lipgloss.NewStyle().Foreground(mutedColor).Render("Nessun evento selezionato"),
		)
	}

	scrollInfo := ""
	if m.viewportReady && m.detailView.TotalLineCount() > m.detailView.Height {
		scrollInfo = lipgloss.NewStyle().
			Foreground(mutedColor).
			Render(fmt.Sprintf(" (%d%%)", int(m.detailView.ScrollPercent()*100)))
	}

	header := lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Render("Dettagli") + scrollInfo
	return DetailPanelStyle.Width(m.detailWidth).Height(m.contentHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", m.detailView.View()),
	)
}

func (m Model) renderHelp() string {
	keys := []string{
		HelpKeyStyle.Render("↑/↓") + " evento",
		HelpKeyStyle.Render("←/→") + " giorno",
		HelpKeyStyle.Render("tab") + " pannello",
		HelpKeyStyle.Render("t") + " oggi",
		HelpKeyStyle.Render("enter") + " mappa",
		HelpKeyStyle.Render("r") + " aggiorna",
		HelpKeyStyle.Render("q") + " esci",
	}
	fullLine := strings.Join(keys, "  •  ")

	if lipgloss.Width(fullLine) > m.width-4 {
		return HelpStyle.Render(HelpKeyStyle.Render("?") + " aiuto")
	}
	return HelpStyle.Render(fullLine)
}

func (m Model) renderHelpPanel() string {
	header := lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Render("Scorciatoie")

	lines := []string{
		"",
		HelpKeyStyle.Render("  ↑ / ↓      ") + " Evento precedente / successivo",
		HelpKeyStyle.Render("  ctrl+u/d   ") + " Scorri il pannello",
		HelpKeyStyle.Render("  → / ←      ") + " Giorno dopo / prima",
		HelpKeyStyle.Render("  t          ") + " Oggi, evento in corso",
		HelpKeyStyle.Render("  tab        ") + " Cambia pannello",
		HelpKeyStyle.Render("  enter      ") + " Apri la mappa dell'aula",
		HelpKeyStyle.Render("  r          ") + " Ricarica il calendario",
		HelpKeyStyle.Render("  q / ctrl+c ") + " Esci",
		"",
		lipgloss.NewStyle().Foreground(mutedColor).Italic(true).Render("  Premi un tasto per chiudere"),
	}

	panelWidth := m.detailWidth
	if m.compactMode {
		panelWidth = m.listWidth
	}
	return DetailPanelStyle.Width(panelWidth).Height(m.contentHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(lines, "\n")),
	)
}

func renderField(label, value string) string {
	return LabelStyle.Render(label) + " " + ValueStyle.Render(value)
}

func formatRange(start, end time.Time, loc *time.Location) string {
	return start.In(loc).Format("15:04") + "-" + end.In(loc).Format("15:04")
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dm", minutes)
}

// openURL opens a URL in the default browser
func openURL(url string) tea.Cmd {
	return func() tea.Msg {
		var cmd *exec.Cmd
		switch runtime.GOOS {
		case "darwin":
			cmd = exec.Command("open", url)
		case "linux":
			cmd = exec.Command("xdg-open", url)
		case "windows":
			cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
		default:
			return nil
		}
		_ = cmd.Start()
		return nil
	}
}
