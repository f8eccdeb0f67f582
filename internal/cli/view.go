package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/diagram"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/model"
)

// List styles
var (
	treeSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	treeNormalStyle   = lipgloss.NewStyle().Foreground(colorValue)
	treeLabelStyle    = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	treeDimStyle      = lipgloss.NewStyle().Foreground(colorMuted)
)

// viewCommand creates the view command for browsing a diagram interactively.
func (c *CLI) viewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view [diagram.json]",
		Short: "Browse a diagram's hierarchy in the terminal",
		Long: `Browse a diagram's hierarchy in the terminal.

Shows the containment tree with a geometry readout for the selected node.
Containers expand and collapse; labels and locked or manually positioned
nodes are marked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, _, err := diagram.Import(args[0])
			if err != nil {
				return fmt.Errorf("load diagram %s: %w", args[0], err)
			}

			m := NewTreeModel(snap, args[0])
			p := tea.NewProgram(m, tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}

// =============================================================================
// TreeModel - Interactive hierarchy browser
// =============================================================================

// treeRow is one visible line of the tree.
type treeRow struct {
	id    string
	depth int
}

// TreeModel is the bubbletea model for the diagram tree browser.
type TreeModel struct {
	Snapshot *model.Snapshot
	Title    string

	expanded map[string]bool
	rows     []treeRow
	cursor   int
	offset   int
	height   int
}

// NewTreeModel creates a tree browser with every container expanded.
func NewTreeModel(s *model.Snapshot, title string) TreeModel {
	m := TreeModel{
		Snapshot: s,
		Title:    title,
		expanded: make(map[string]bool),
		height:   20,
	}
	for _, n := range s.Nodes() {
		if len(s.ChildIDs(n.ID)) > 0 {
			m.expanded[n.ID] = true
		}
	}
	m.rebuild()
	return m
}

// rebuild flattens the hierarchy into visible rows, honoring collapse state.
func (m *TreeModel) rebuild() {
	m.rows = m.rows[:0]
	for _, root := range m.Snapshot.Roots() {
		m.appendRows(root.ID, 0)
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *TreeModel) appendRows(id string, depth int) {
	m.rows = append(m.rows, treeRow{id: id, depth: depth})
	if !m.expanded[id] {
		return
	}
	for _, childID := range m.Snapshot.ChildIDs(id) {
		m.appendRows(childID, depth+1)
	}
}

func (m TreeModel) Init() tea.Cmd {
	return nil
}

func (m TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", " ":
			if len(m.rows) > 0 {
				id := m.rows[m.cursor].id
				if len(m.Snapshot.ChildIDs(id)) > 0 {
					m.expanded[id] = !m.expanded[id]
					m.rebuild()
				}
			}
		case "e":
			for id := range m.expanded {
				m.expanded[id] = true
			}
			m.rebuild()
		case "c":
			for id := range m.expanded {
				m.expanded[id] = false
			}
			m.rebuild()
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 10
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m TreeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(treeDimStyle.Render("↑/↓ navigate  ⏎ fold  e expand all  c collapse all  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		n, ok := m.Snapshot.Get(row.id)
		if !ok {
			continue
		}

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		line := cursor + strings.Repeat("  ", row.depth) + m.rowMarker(n) + rowText(n)

		switch {
		case i == m.cursor:
			b.WriteString(treeSelectedStyle.Render(line))
		case n.Variant == model.VariantLabel:
			b.WriteString(treeLabelStyle.Render(line))
		default:
			b.WriteString(treeNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.detailView())
	b.WriteString("\n")
	b.WriteString(treeDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.rows))))

	return b.String()
}

// rowMarker returns the fold indicator for a row.
func (m TreeModel) rowMarker(n *model.Node) string {
	if len(m.Snapshot.ChildIDs(n.ID)) == 0 {
		return "  "
	}
	if m.expanded[n.ID] {
		return "▾ "
	}
	return "▸ "
}

// rowText returns the display text for a node.
func rowText(n *model.Node) string {
	text := n.Label
	if text == "" {
		text = n.ID
	}
	var marks []string
	if n.ManualLayout {
		marks = append(marks, "manual")
	}
	if n.Locked {
		marks = append(marks, "locked")
	}
	if len(marks) > 0 {
		text += "  [" + strings.Join(marks, ",") + "]"
	}
	return text
}

// detailView renders the geometry readout for the selected node.
func (m TreeModel) detailView() string {
	if len(m.rows) == 0 {
		return treeDimStyle.Render("  empty diagram")
	}
	n, ok := m.Snapshot.Get(m.rows[m.cursor].id)
	if !ok {
		return ""
	}

	var b strings.Builder
	key := lipgloss.NewStyle().Foreground(colorMuted).Width(10)
	line := func(k, v string) {
		b.WriteString("  " + key.Render(k) + " " + StyleValue.Render(v) + "\n")
	}
	line("id", n.ID)
	line("variant", string(n.Variant))
	line("rect", fmt.Sprintf("%dx%d @ (%d,%d)", n.Rect.W, n.Rect.H, n.Rect.X, n.Rect.Y))
	line("children", fmt.Sprintf("%d", len(m.Snapshot.ChildIDs(n.ID))))
	line("depth", fmt.Sprintf("%d", m.Snapshot.Depth(n.ID)))
	return b.String()
}
