// Command kgbrowse is an interactive terminal browser for graph snapshots written by kgbuild.
// It starts at the sectors and drills down through industries and sub-industries to themes.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/dd0wney/cluso-kg/pkg/graph"
	"github.com/dd0wney/cluso-kg/pkg/kg"
	"github.com/dd0wney/cluso-kg/pkg/store"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	crumbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FFFF")).
			MarginLeft(2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	detailBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 1).
			MarginLeft(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type keyMap struct {
	Open key.Binding
	Back key.Binding
	Up   key.Binding
	Down key.Binding
	Quit key.Binding
}

var keys = keyMap{
	Open: key.NewBinding(
		key.WithKeys("enter", "right", "l"),
		key.WithHelp("enter", "open"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "left", "h", "backspace"),
		key.WithHelp("esc", "back"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Back, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Open, k.Back},
		{k.Up, k.Down},
		{k.Quit},
	}
}

// childEdge is the edge type whose sources are the children of a node of the key type.
var childEdge = map[graph.NodeType]graph.EdgeType{
	graph.NodeSector:      graph.EdgeIndustryToSector,
	graph.NodeIndustry:    graph.EdgeSubIndustryToIndustry,
	graph.NodeSubIndustry: graph.EdgeThemeToSubIndustry,
}

// frame is one level of the drill-down: the parent being listed (nil at the top) and the
// cursor to restore when returning to it.
type frame struct {
	parent *graph.NodeRecord
	rows   []graph.NodeRecord
	cursor int
}

type model struct {
	graph    *kg.Graph
	manifest store.Manifest
	stack    []frame
	table    table.Model
	help     help.Model
	keys     keyMap
	width    int
	height   int
	message  string
}

func initialModel(g *kg.Graph, m store.Manifest) model {
	columns := []table.Column{
		{Title: "ID", Width: 8},
		{Title: "Type", Width: 12},
		{Title: "Name", Width: 40},
		{Title: "Children", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)

	mdl := model{
		graph:    g,
		manifest: m,
		table:    t,
		help:     help.New(),
		keys:     keys,
	}
	mdl.push(nil, g.NodesOfType(graph.NodeSector))
	return mdl
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if h := msg.Height - 14; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Open):
			m.open()
			return m, nil
		case key.Matches(msg, m.keys.Back):
			m.back()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// selected returns the record under the cursor.
func (m *model) selected() (graph.NodeRecord, bool) {
	top := m.stack[len(m.stack)-1]
	i := m.table.Cursor()
	if i < 0 || i >= len(top.rows) {
		return graph.NodeRecord{}, false
	}
	return top.rows[i], true
}

func (m *model) open() {
	rec, ok := m.selected()
	if !ok {
		return
	}
	children := m.children(rec)
	if len(children) == 0 {
		m.message = fmt.Sprintf("%s %d has no children", rec.Type, rec.NID)
		return
	}
	m.stack[len(m.stack)-1].cursor = m.table.Cursor()
	m.push(&rec, children)
}

func (m *model) back() {
	if len(m.stack) == 1 {
		return
	}
	m.stack = m.stack[:len(m.stack)-1]
	top := m.stack[len(m.stack)-1]
	m.table.SetRows(m.rows(top.rows))
	m.table.SetCursor(top.cursor)
	m.message = ""
}

func (m *model) push(parent *graph.NodeRecord, rows []graph.NodeRecord) {
	m.stack = append(m.stack, frame{parent: parent, rows: rows})
	m.table.SetRows(m.rows(rows))
	m.table.SetCursor(0)
	m.message = ""
}

// children returns the nodes one level below rec, in edge order.
func (m *model) children(rec graph.NodeRecord) []graph.NodeRecord {
	etype, ok := childEdge[rec.Type]
	if !ok {
		return nil
	}
	var out []graph.NodeRecord
	for _, id := range m.graph.Predecessors(rec.NID) {
		child, ok := m.graph.Node(id)
		if ok && child.Type == etype.Source() {
			out = append(out, child)
		}
	}
	return out
}

func (m *model) rows(recs []graph.NodeRecord) []table.Row {
	rows := make([]table.Row, len(recs))
	for i, rec := range recs {
		count := "-"
		if _, ok := childEdge[rec.Type]; ok {
			count = fmt.Sprint(len(m.children(rec)))
		}
		rows[i] = table.Row{fmt.Sprint(int64(rec.NID)), rec.Type.String(), name(rec), count}
	}
	return rows
}

// name is the display name of a node: its theme or sector text, or for clusters the
// augmented label when present.
func name(rec graph.NodeRecord) string {
	switch a := rec.Attrs.(type) {
	case graph.ThemeAttrs:
		return a.Theme
	case graph.SectorAttrs:
		return a.Sector
	case graph.ClusterAttrs:
		if a.Text != "" {
			return a.Text
		}
		return fmt.Sprintf("cluster %d", a.Label)
	}
	return ""
}

// detail renders the long-form attributes of rec.
func detail(rec graph.NodeRecord) string {
	var lines []string
	switch a := rec.Attrs.(type) {
	case graph.ThemeAttrs:
		lines = append(lines, "Theme: "+a.Theme)
		if a.Description != "" {
			lines = append(lines, a.Description)
		}
	case graph.SectorAttrs:
		lines = append(lines, "Sector: "+a.Sector)
	case graph.ClusterAttrs:
		lines = append(lines, fmt.Sprintf("%s cluster %d", rec.Type, a.Label))
		if a.Text != "" {
			lines = append(lines, "Label: "+a.Text)
		}
		if a.Note != "" {
			lines = append(lines, "Note: "+a.Note)
		}
	}
	return strings.Join(lines, "\n")
}

func (m model) breadcrumb() string {
	parts := []string{"Sectors"}
	for _, f := range m.stack[1:] {
		parts = append(parts, name(*f.parent))
	}
	return strings.Join(parts, " › ")
}

func (m model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("Knowledge graph %s", m.manifest.RunID)))
	s.WriteString("\n")
	s.WriteString(crumbStyle.Render(fmt.Sprintf("%d nodes, %d edges   %s",
		m.graph.NumNodes(), m.graph.NumEdges(), m.breadcrumb())))
	s.WriteString("\n")
	s.WriteString(contentStyle.Render(m.table.View()))

	if rec, ok := m.selected(); ok {
		if width := m.width - 6; width > 20 {
			s.WriteString("\n")
			s.WriteString(detailBoxStyle.Width(width).Render(detail(rec)))
		} else {
			s.WriteString("\n")
			s.WriteString(detailBoxStyle.Render(detail(rec)))
		}
	}

	if m.message != "" {
		s.WriteString("\n")
		s.WriteString(errorStyle.MarginLeft(2).Render(m.message))
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return s.String()
}

// load opens the snapshot runID under dir, or the most recent one when runID is empty.
func load(dir, runID string) (*kg.Graph, store.Manifest, error) {
	files, err := store.NewFileStore(dir, store.Options{})
	if err != nil {
		return nil, store.Manifest{}, err
	}

	var id uuid.UUID
	if runID == "" {
		latest, err := files.Latest()
		if err != nil {
			return nil, store.Manifest{}, err
		}
		id = latest.RunID
	} else if id, err = uuid.Parse(runID); err != nil {
		return nil, store.Manifest{}, fmt.Errorf("invalid run id %q: %w", runID, err)
	}

	c, manifest, err := files.Open(id)
	if err != nil {
		return nil, store.Manifest{}, err
	}
	g, err := kg.Assemble(c)
	if err != nil {
		return nil, store.Manifest{}, err
	}
	return g, manifest, nil
}

func main() {
	dir := flag.String("dir", "out", "Snapshot directory written by kgbuild")
	runID := flag.String("run", "", "Run id to open (default: most recent)")
	flag.Parse()

	g, manifest, err := load(*dir, *runID)
	if err != nil {
		log.Fatalf("Failed to load snapshot: %v", err)
	}

	p := tea.NewProgram(initialModel(g, manifest), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
