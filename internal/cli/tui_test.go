package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/stackplan/pkg/floorplan/construct"
	"github.com/matzehuels/stackplan/pkg/snapshot"
)

func inspectSnapshot() *snapshot.Snapshot {
	g := 0
	return &snapshot.Snapshot{
		ID:      "snap-1",
		Circuit: "tiny",
		Blocks: []snapshot.Block{
			{Name: "a", Type: "hard", W: 4, H: 4, Group: &g},
			{Name: "b", Type: "hard", X: 4, W: 2, H: 2, Z: 1, Group: &g},
			{Name: "c", Type: "soft", W: 2, H: 2, Preplaced: true},
		},
		Nets: []snapshot.Net{
			{ID: 0, Connectors: []string{"a", "b"}, HPWL: 3, Cut: true, LayerPins: []int{1, 1}},
		},
		Partners: []construct.PartnerRow{{Blk0: "a", Blk1: "b", AlignmentArea: 4, AlignmentGroup: 0}},
	}
}

func press(m tea.Model, keys ...tea.KeyMsg) inspectModel {
	for _, k := range keys {
		m, _ = m.Update(k)
	}
	return m.(inspectModel)
}

var (
	keyDown = tea.KeyMsg{Type: tea.KeyDown}
	keyUp   = tea.KeyMsg{Type: tea.KeyUp}
	keyTab  = tea.KeyMsg{Type: tea.KeyTab}
)

func TestInspectModelNavigation(t *testing.T) {
	m := newInspectModel(inspectSnapshot())

	m = press(m, keyDown, keyDown, keyDown)
	if m.cursor[tabBlocks] != 2 {
		t.Errorf("cursor = %d, want clamped to 2", m.cursor[tabBlocks])
	}
	m = press(m, keyUp)
	if m.cursor[tabBlocks] != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor[tabBlocks])
	}

	m = press(m, keyTab)
	if m.tab != tabNets {
		t.Errorf("tab = %d, want nets", m.tab)
	}
	m = press(m, keyTab, keyTab)
	if m.tab != tabBlocks {
		t.Errorf("tab = %d, want wrap to blocks", m.tab)
	}
	if m.cursor[tabBlocks] != 1 {
		t.Error("cursor should survive tab switches")
	}
}

func TestInspectModelQuit(t *testing.T) {
	m := newInspectModel(inspectSnapshot())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestInspectModelView(t *testing.T) {
	m := newInspectModel(inspectSnapshot())
	view := m.View()
	for _, want := range []string{"tiny", "Blocks (3)", "Nets (1)", "Partners (1)", "preplaced"} {
		if !strings.Contains(view, want) {
			t.Errorf("blocks view missing %q", want)
		}
	}

	m = press(m, keyTab)
	if view := m.View(); !strings.Contains(view, "a b") || !strings.Contains(view, "cut") {
		t.Errorf("nets view missing net row:\n%s", view)
	}

	m = press(m, keyTab)
	if view := m.View(); !strings.Contains(view, "alignment_group") {
		t.Errorf("partners view missing header:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Errorf("truncate = %q", got)
	}
}
