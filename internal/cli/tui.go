package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/NyankoNyan/buildgen/pkg/config"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// BuildingListModel - Interactive building selection
// =============================================================================

// BuildingListModel is the bubbletea model for picking a building to
// generate.
type BuildingListModel struct {
	Buildings []config.Building
	Cursor    int
	Selected  *config.Building
	Height    int
	Offset    int
}

// NewBuildingListModel creates a picker over the buildings of f.
func NewBuildingListModel(f *config.File) BuildingListModel {
	return BuildingListModel{
		Buildings: f.Buildings,
		Height:    15,
	}
}

func (m BuildingListModel) Init() tea.Cmd {
	return nil
}

func (m BuildingListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Buildings)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Buildings) == 0 {
				return m, tea.Quit
			}
			b := m.Buildings[m.Cursor]
			m.Selected = &b
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m BuildingListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Building"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Buildings))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		bld := m.Buildings[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		name := bld.Name
		if name == "" {
			name = "—"
		}
		rows = append(rows, []string{cursor, bld.ID, name, strconv.Itoa(len(bld.Sections)), bld.Description})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Building", "Name", "Sections", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleTableHeader
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col == 4 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Buildings))))

	return b.String()
}

// pickBuilding runs the picker and returns the chosen building id, or ""
// if the user quit.
func pickBuilding(f *config.File) (string, error) {
	final, err := tea.NewProgram(NewBuildingListModel(f)).Run()
	if err != nil {
		return "", err
	}
	if m, ok := final.(BuildingListModel); ok && m.Selected != nil {
		return m.Selected.ID, nil
	}
	return "", nil
}
