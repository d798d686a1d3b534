package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/stackplan/pkg/snapshot"
)

var (
	tabActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Underline(true)
	tabInactiveStyle = lipgloss.NewStyle().Foreground(colorDim)
	rowCurrentStyle  = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
)

// Inspector tabs.
const (
	tabBlocks = iota
	tabNets
	tabPartners
	numTabs
)

var tabNames = [numTabs]string{"Blocks", "Nets", "Partners"}

// inspectModel is the bubbletea model behind `stackplan inspect`.
type inspectModel struct {
	snap   *snapshot.Snapshot
	tab    int
	cursor [numTabs]int
	offset [numTabs]int
	height int
}

func newInspectModel(s *snapshot.Snapshot) inspectModel {
	return inspectModel{snap: s, height: 15}
}

func (m inspectModel) Init() tea.Cmd { return nil }

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "right", "l":
			m.tab = (m.tab + 1) % numTabs
		case "shift+tab", "left", "h":
			m.tab = (m.tab + numTabs - 1) % numTabs
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.height)
		case "pgdown":
			m.move(m.height)
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
		m.move(0)
	}
	return m, nil
}

// move shifts the cursor of the current tab by delta, keeping it on screen.
func (m *inspectModel) move(delta int) {
	n := m.rowCount(m.tab)
	if n == 0 {
		return
	}
	c := min(max(m.cursor[m.tab]+delta, 0), n-1)
	m.cursor[m.tab] = c
	if c < m.offset[m.tab] {
		m.offset[m.tab] = c
	}
	if c >= m.offset[m.tab]+m.height {
		m.offset[m.tab] = c - m.height + 1
	}
}

func (m inspectModel) rowCount(tab int) int {
	switch tab {
	case tabBlocks:
		return len(m.snap.Blocks)
	case tabNets:
		return len(m.snap.Nets)
	default:
		return len(m.snap.Partners)
	}
}

func (m inspectModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(fmt.Sprintf("%s  ", m.snap.Circuit)))
	for i, name := range tabNames {
		label := fmt.Sprintf("%s (%d)", name, m.rowCount(i))
		if i == m.tab {
			b.WriteString(tabActiveStyle.Render(label))
		} else {
			b.WriteString(tabInactiveStyle.Render(label))
		}
		b.WriteString("  ")
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("tab switch  ↑/↓ move  q quit"))
	b.WriteString("\n\n")

	headers, rows := m.tableRows(m.tab)
	start := m.offset[m.tab]
	end := min(start+m.height, len(rows))
	current := m.cursor[m.tab] - start

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers(headers...).
		Rows(rows[start:end]...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader
			case row == current:
				return rowCurrentStyle
			default:
				return StyleValue
			}
		})
	b.WriteString(t.Render())
	b.WriteString("\n")
	if n := len(rows); n > 0 {
		b.WriteString(StyleDim.Render(fmt.Sprintf("  [%d/%d]", m.cursor[m.tab]+1, n)))
	}
	return b.String()
}

// tableRows returns the headers and every row of tab.
func (m inspectModel) tableRows(tab int) ([]string, [][]string) {
	switch tab {
	case tabBlocks:
		rows := make([][]string, len(m.snap.Blocks))
		for i, bl := range m.snap.Blocks {
			group := "-"
			if bl.Group != nil {
				group = strconv.Itoa(*bl.Group)
			}
			rows[i] = []string{
				bl.Name, bl.Type,
				fmt.Sprintf("%d,%d", bl.X, bl.Y), strconv.Itoa(bl.Z),
				fmt.Sprintf("%dx%d", bl.W, bl.H),
				blockFlags(bl), group,
			}
		}
		return []string{"name", "type", "x,y", "z", "size", "flags", "group"}, rows
	case tabNets:
		rows := make([][]string, len(m.snap.Nets))
		for i, n := range m.snap.Nets {
			cut := ""
			if n.Cut {
				cut = "cut"
			}
			pins := make([]string, len(n.LayerPins))
			for z, p := range n.LayerPins {
				pins[z] = strconv.Itoa(p)
			}
			rows[i] = []string{
				strconv.Itoa(n.ID), truncate(strings.Join(n.Connectors, " "), 40),
				fmt.Sprintf("%g", n.HPWL), strings.Join(pins, "/"), cut,
			}
		}
		return []string{"id", "connectors", "hpwl", "layer pins", ""}, rows
	default:
		rows := make([][]string, len(m.snap.Partners))
		for i, p := range m.snap.Partners {
			rows[i] = []string{p.Blk0, p.Blk1, fmt.Sprintf("%g", p.AlignmentArea), strconv.Itoa(p.AlignmentGroup)}
		}
		return []string{"blk0", "blk1", "alignment_area", "alignment_group"}, rows
	}
}

func blockFlags(b snapshot.Block) string {
	var flags []string
	if b.Preplaced {
		flags = append(flags, "preplaced")
	}
	if b.Virtual {
		flags = append(flags, "virtual")
	}
	if b.Placed {
		flags = append(flags, "placed")
	}
	return strings.Join(flags, ",")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
