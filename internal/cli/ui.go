package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/stackplan/pkg/floorplan/construct"
	"github.com/matzehuels/stackplan/pkg/snapshot"
)

var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // success
	colorYellow = lipgloss.Color("220") // warnings
	colorRed    = lipgloss.Color("167") // errors
	colorBlue   = lipgloss.Color("75")  // commands
	colorWhite  = lipgloss.Color("255") // values
	colorGray   = lipgloss.Color("245") // secondary text
	colorDim    = lipgloss.Color("240") // muted text
)

var (
	// StyleTitle for headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)
	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)
	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)
	// StyleWarning for warnings.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleBorder   = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented dim line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(16)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printStats prints floorplan counts on one line.
func printStats(st snapshot.Stats, pairs int, cached bool) {
	parts := []string{
		fmt.Sprintf("%d blocks", st.Blocks),
		fmt.Sprintf("%d terminals", st.Terminals),
		fmt.Sprintf("%d nets", st.Nets),
	}
	if pairs > 0 {
		parts = append(parts, fmt.Sprintf("%d pairs", pairs))
	}
	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}

	rendered := make([]string, len(parts))
	for i, p := range parts {
		rendered[i] = StyleDim.Render(p)
	}
	fmt.Println("  " + strings.Join(rendered, StyleDim.Render(" · ")) + StyleDim.Render(" · ") + statusStyle.Render(status))
}

// printSummary prints the floorplan-wide figures of s.
func printSummary(s *snapshot.Snapshot) {
	printKeyValue("Outline", fmt.Sprintf("%.2f x %.2f", s.OutlineWidth, s.OutlineHeight))
	printKeyValue("Grid", fmt.Sprintf("%d x %d, %d layers", s.NumGridX, s.NumGridY, s.NumLayer))
	area := make([]string, len(s.Stats.LayerArea))
	for z, a := range s.Stats.LayerArea {
		area[z] = fmt.Sprintf("%g", a)
	}
	printKeyValue("Layer area", strings.Join(area, " / "))
	printKeyValue("Utilization", fmt.Sprintf("%.1f%%", 100*s.Stats.Utilization))
	printKeyValue("Movable", fmt.Sprintf("%d of %d", s.Stats.MovableBlocks, s.Stats.Blocks))
	printKeyValue("Cut nets", fmt.Sprintf("%d", s.Stats.CutNets))
	printKeyValue("Groups", fmt.Sprintf("%d", s.Stats.AlignmentGroups))
}

// partnerTable renders the alignment partner table.
func partnerTable(rows []construct.PartnerRow) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{r.Blk0, r.Blk1, fmt.Sprintf("%g", r.AlignmentArea), fmt.Sprintf("%d", r.AlignmentGroup)}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers("blk0", "blk1", "alignment_area", "alignment_group").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col >= 2 {
				return StyleNumber
			}
			return StyleValue
		}).
		Render()
}

func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}
