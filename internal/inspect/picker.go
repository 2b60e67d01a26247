package inspect

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// SourceItem is one staged source offered by the picker.
type SourceItem struct {
	Name         string
	StagedBytes  int64
	LoadedOffset int64
}

func (s SourceItem) label() string {
	pending := max(s.StagedBytes-s.LoadedOffset, 0)
	return fmt.Sprintf("%s (%s staged, %s pending load)",
		s.Name, humanize.Bytes(uint64(s.StagedBytes)), humanize.Bytes(uint64(pending)))
}

type pickerModel struct {
	sources []SourceItem
	cursor  int
	chosen  int // -1 = no choice yet, -2 = quit
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.chosen = -2
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.sources)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Staging Inspector: select a source")
	s += "\n"

	for i, src := range m.sources {
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+src.label()) + "\n"
		} else {
			s += pickerItemStyle.Render(src.label()) + "\n"
		}
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

// RunSourcePicker shows an interactive source selector.
// Returns the index of the chosen source, or a negative value if the user quit.
func RunSourcePicker(sources []SourceItem) (int, error) {
	m := pickerModel{
		sources: sources,
		chosen:  -1,
	}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return -1, err
	}

	final := result.(pickerModel)
	return final.chosen, nil
}
