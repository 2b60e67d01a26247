package inspect

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobpulse/internal/analytics"
	"github.com/amishk599/jobpulse/internal/normalize"
)

const dateLayout = "2006-01-02 15:04 MST"

// Lines per record in the list view (title + subtitle + blank separator).
const recordItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	recordTitleStyle = lipgloss.NewStyle().
				Bold(true)

	recordSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	rejectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	degradedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	descDividerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	descHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	descBodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

// termsExtractedMsg is sent when an on-demand tagger call completes.
type termsExtractedMsg struct {
	key   string
	terms []string
	err   error
}

type inspectModel struct {
	source        string
	all           []Record
	attention     []Record
	leftViewport  viewport.Model
	rightViewport viewport.Model
	activePane    int // 0=left, 1=right
	leftCursor    int
	rightCursor   int
	width         int
	height        int
	ready         bool

	// Detail view state
	view            viewState
	detail          Record
	detailViewport  viewport.Model
	showDescription bool

	// Tagger state, keyed by source/external ID
	tagger     normalize.TermExtractor
	tagged     map[string][]string
	tagLoading bool
	tagError   string

	wantQuit bool
}

func newInspectModel(source string, records []Record, tagger normalize.TermExtractor) inspectModel {
	return inspectModel{
		source:    source,
		all:       records,
		attention: Attention(records),
		tagger:    tagger,
		tagged:    make(map[string][]string),
	}
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case termsExtractedMsg:
		m.tagLoading = false
		if msg.err != nil {
			m.tagError = fmt.Sprintf("tagger failed: %v", msg.err)
		} else {
			m.tagError = ""
			m.tagged[msg.key] = msg.terms
		}
		m.detailViewport.SetContent(m.renderDetail())
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m inspectModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	// Forward other keys (pgup/pgdn/home/end) to the active viewport.
	var cmd tea.Cmd
	if m.activePane == 0 {
		m.leftViewport, cmd = m.leftViewport.Update(msg)
	} else {
		m.rightViewport, cmd = m.rightViewport.Update(msg)
	}
	return m, cmd
}

func (m inspectModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		openURL(m.detail.Raw.URL)
		return m, nil
	case "r":
		if m.detail.Raw.Description != "" {
			m.showDescription = !m.showDescription
			m.detailViewport.SetContent(m.renderDetail())
			m.detailViewport.SetYOffset(0)
		}
		return m, nil
	case "s":
		if _, done := m.tagged[recordKey(m.detail)]; m.tagger != nil && !m.tagLoading && !done {
			m.tagLoading = true
			m.tagError = ""
			m.detailViewport.SetContent(m.renderDetail())
			return m, m.extractTermsCmd(m.detail)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m inspectModel) extractTermsCmd(r Record) tea.Cmd {
	tagger := m.tagger
	return func() tea.Msg {
		terms, err := tagger.ExtractTerms(context.Background(), r.Raw.Title, r.Raw.Description)
		return termsExtractedMsg{key: recordKey(r), terms: terms, err: err}
	}
}

func recordKey(r Record) string {
	return r.Raw.Source + "/" + r.Raw.ExternalID
}

func (m *inspectModel) moveCursor(delta int) {
	if m.activePane == 0 {
		m.leftCursor = clamp(m.leftCursor+delta, 0, max(len(m.all)-1, 0))
	} else {
		m.rightCursor = clamp(m.rightCursor+delta, 0, max(len(m.attention)-1, 0))
	}
}

func (m *inspectModel) ensureCursorVisible() {
	var vp *viewport.Model
	var cursor int
	if m.activePane == 0 {
		vp = &m.leftViewport
		cursor = m.leftCursor
	} else {
		vp = &m.rightViewport
		cursor = m.rightCursor
	}

	cursorTop := cursor * recordItemHeight
	cursorBottom := cursorTop + recordItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m inspectModel) openDetailView() (tea.Model, tea.Cmd) {
	records := m.activeRecords()
	if len(records) == 0 {
		return m, nil
	}

	m.view = viewDetail
	m.detail = records[m.activeCursor()]
	m.tagError = ""
	m.showDescription = false
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *inspectModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *inspectModel) recalcContent() {
	m.leftViewport.SetContent(renderRecords(m.all, m.leftCursor, m.activePane == 0))
	m.rightViewport.SetContent(renderRecords(m.attention, m.rightCursor, m.activePane == 1))
}

func (m inspectModel) activeRecords() []Record {
	if m.activePane == 0 {
		return m.all
	}
	return m.attention
}

func (m inspectModel) activeCursor() int {
	if m.activePane == 0 {
		return m.leftCursor
	}
	return m.rightCursor
}

func (m inspectModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.view == viewDetail {
		return m.viewDetail()
	}

	return m.viewList()
}

func (m inspectModel) viewList() string {
	paneWidth := m.leftViewport.Width

	leftHeader := fmt.Sprintf(" %s: Staged (%d)", m.source, len(m.all))
	rightHeader := fmt.Sprintf(" Needs Attention (%d)", len(m.attention))

	var leftHeaderRendered, rightHeaderRendered string
	var leftBorder, rightBorder lipgloss.Style

	if m.activePane == 0 {
		leftHeaderRendered = activeHeaderStyle.Render(leftHeader)
		rightHeaderRendered = inactiveHeaderStyle.Render(rightHeader)
		leftBorder = activeBorderStyle.Width(paneWidth)
		rightBorder = inactiveBorderStyle.Width(paneWidth)
	} else {
		leftHeaderRendered = inactiveHeaderStyle.Render(leftHeader)
		rightHeaderRendered = activeHeaderStyle.Render(rightHeader)
		leftBorder = inactiveBorderStyle.Width(paneWidth)
		rightBorder = activeBorderStyle.Width(paneWidth)
	}

	leftPane := leftBorder.Render(m.leftViewport.View())
	rightPane := rightBorder.Render(m.rightViewport.View())

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderRendered),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderRendered),
	)

	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, " ", rightPane)

	rejected := 0
	for _, r := range m.all {
		if r.Rejected() {
			rejected++
		}
	}
	statusText := fmt.Sprintf(" %d staged | %d rejected | %d degraded    ←/→/Tab switch  ↑/↓ cursor  Enter detail  Esc back  q quit",
		len(m.all), rejected, len(m.attention)-rejected)
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m inspectModel) viewDetail() string {
	title := detailTitleStyle.Render("Record Details")
	if m.tagLoading {
		title += "  (tagging...)"
	}

	border := activeBorderStyle.Width(m.width - 2)
	content := border.Render(m.detailViewport.View())

	statusText := " o open URL  r desc  esc/backspace back  ↑/↓ scroll  q quit"
	if m.tagger != nil {
		statusText = " o open URL  r desc  s tag skills  esc/backspace back  ↑/↓ scroll  q quit"
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

func (m inspectModel) renderDetail() string {
	r := m.detail
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	if r.Rejected() {
		b.WriteString(rejectedStyle.Render("✗ rejected: "+r.Err.Error()) + "\n\n")
	} else if len(r.Degraded) > 0 {
		b.WriteString(degradedStyle.Render("⚠ degraded: "+strings.Join(r.Degraded, ", ")) + "\n\n")
	}

	j := r.Job
	addField("Title", r.Raw.Title)
	addField("Source", r.Raw.Source)
	addField("External ID", r.Raw.ExternalID)
	if !r.Rejected() {
		addField("Company", j.Company.Name)
		addField("Location", analytics.LocationLabel(j.Location))
		addField("Salary", fmtSalary(j.Salary))
		addField("Job Type", j.JobType)
		if j.PostedDate != nil {
			addField("Posted", j.PostedDate.UTC().Format(dateLayout))
		}
		addField("Scraped", j.ScrapedDate.UTC().Format(dateLayout))
		addField("Skills", skillNames(j.Skills))
	}

	b.WriteByte('\n')
	b.WriteString(descDividerStyle.Render("── As staged ") + "\n\n")
	addField("Company", r.Raw.CompanyRaw)
	addField("Location", r.Raw.LocationRaw)
	addField("Salary", r.Raw.SalaryRaw)
	addField("Posted", r.Raw.PostedDate)
	addField("Tags", strings.Join(r.Raw.Tags, ", "))
	addField("URL", r.Raw.URL)

	wrapWidth := max(m.width-8, 20)
	divider := func(label string) string {
		fill := strings.Repeat("─", max(wrapWidth-len(label), 3))
		return descDividerStyle.Render(label + fill)
	}

	if terms, ok := m.tagged[recordKey(r)]; ok {
		b.WriteByte('\n')
		b.WriteString(divider("── Tagger ") + "\n\n")
		if len(terms) == 0 {
			b.WriteString(descHintStyle.Render("  no terms suggested") + "\n")
		} else {
			addField("Suggested", strings.Join(terms, ", "))
		}
	} else if m.tagLoading {
		b.WriteByte('\n')
		b.WriteString(descHintStyle.Render("  asking the tagger...") + "\n")
	} else if m.tagError != "" {
		b.WriteByte('\n')
		b.WriteString(rejectedStyle.Render("⚠ "+m.tagError) + "\n")
	}

	if r.Raw.Description != "" {
		b.WriteByte('\n')
		if m.showDescription {
			b.WriteString(divider("── Description ") + "\n\n")
			b.WriteString(descBodyStyle.Render(wordWrap(r.Raw.Description, wrapWidth)) + "\n")
		} else {
			b.WriteString(descHintStyle.Render("  press r to read the description") + "\n")
		}
	}

	return b.String()
}

func renderRecords(records []Record, cursor int, isActive bool) string {
	if len(records) == 0 {
		return "  (no records)"
	}

	var b strings.Builder
	for i, r := range records {
		isSelected := isActive && i == cursor

		titleSt := recordTitleStyle
		subtitleSt := recordSubtitleStyle
		prefix := "  "
		if isSelected {
			titleSt = selectedTitleStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		title := r.Raw.Title
		if title == "" {
			title = "(untitled " + r.Raw.ExternalID + ")"
		}
		b.WriteString(prefix)
		b.WriteString(titleSt.Render(title))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(subtitle(r)))
		b.WriteByte('\n')

		if i < len(records)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func subtitle(r Record) string {
	switch {
	case r.Rejected():
		return "rejected"
	case len(r.Degraded) > 0:
		return fmt.Sprintf("%s · degraded %s", analytics.LocationLabel(r.Job.Location), strings.Join(r.Degraded, ","))
	default:
		return fmt.Sprintf("%s · %d skills", analytics.LocationLabel(r.Job.Location), len(r.Job.Skills))
	}
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	if url == "" {
		return
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunInspectTUI launches the split-pane inspector over one source's records.
// tagger may be nil; when set, the 's' key asks it for skill terms.
// Returns wantQuit=true if the user pressed q/ctrl+c, false if they pressed
// esc to return to the picker.
func RunInspectTUI(source string, records []Record, tagger normalize.TermExtractor) (bool, error) {
	p := tea.NewProgram(newInspectModel(source, records, tagger), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(inspectModel)
	return final.wantQuit, nil
}
