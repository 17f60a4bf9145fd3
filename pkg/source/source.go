// Package source loads the raw theme records a run starts from and turns them into the base
// collection: one Theme table, one Sector table and the ThemeToSector edges between them.
package source

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dd0wney/cluso-kg/pkg/graph"
	"github.com/dd0wney/cluso-kg/pkg/validation"
)

const stage = "source"

// maxLineBytes bounds a single JSONL record. Descriptions are a few paragraphs at most.
const maxLineBytes = 1 << 20

// Theme is one input record: a theme, the sector it was sourced under and a free-text
// description.
type Theme struct {
	Theme       string `json:"theme" validate:"required,notblank,max=200"`
	Sector      string `json:"sector" validate:"required,notblank,max=100"`
	Description string `json:"description" validate:"max=4000"`
}

// ParseJSONL reads one JSON object per line. Blank lines are skipped; any other line that is
// not a Theme object fails with its line number.
func ParseJSONL(r io.Reader) ([]Theme, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var themes []Theme
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text))
		dec.DisallowUnknownFields()
		var t Theme
		if err := dec.Decode(&t); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		themes = append(themes, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}
	return themes, nil
}

// ReadFile parses the JSONL file at path.
func ReadFile(path string) ([]Theme, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	themes, err := ParseJSONL(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return themes, nil
}

// Validate checks every record's fields and that theme names are unique. An empty input is
// rejected: the base layer needs at least one theme.
func Validate(themes []Theme) error {
	if len(themes) == 0 {
		return graph.PreconditionError(stage, graph.NodeTheme.String(), "no theme records")
	}
	seen := make(map[string]int, len(themes))
	for i := range themes {
		if err := validation.StructAt(&themes[i], i); err != nil {
			return graph.PreconditionError(stage, graph.NodeTheme.String(), err.Error())
		}
		if first, dup := seen[themes[i].Theme]; dup {
			return graph.PreconditionError(stage, graph.NodeTheme.String(),
				fmt.Sprintf("theme %q repeated at records %d and %d", themes[i].Theme, first, i))
		}
		seen[themes[i].Theme] = i
	}
	return nil
}

// ToBase validates themes and builds the base collection. Ids come from one running
// counter walked in input order: each theme takes the next id, and a sector seen for the
// first time takes the id right after the theme that introduced it. Every theme gets one
// ThemeToSector edge.
func ToBase(themes []Theme) (*graph.Collection, error) {
	if err := Validate(themes); err != nil {
		return nil, err
	}

	var (
		next     graph.NodeID
		themeIDs = make([]graph.NodeID, len(themes))
		names    = make([]string, len(themes))
		descs    = make([]string, len(themes))
		dst      = make([]graph.NodeID, len(themes))

		sectorIDs   []graph.NodeID
		sectorNames []string
		sectorByKey = make(map[string]graph.NodeID)
	)
	for i, t := range themes {
		themeIDs[i] = next
		names[i] = t.Theme
		descs[i] = t.Description
		next++

		id, ok := sectorByKey[t.Sector]
		if !ok {
			id = next
			next++
			sectorByKey[t.Sector] = id
			sectorIDs = append(sectorIDs, id)
			sectorNames = append(sectorNames, t.Sector)
		}
		dst[i] = id
	}

	themeTable, err := graph.NewThemeTable(themeIDs, names, descs)
	if err != nil {
		return nil, err
	}
	sectorTable, err := graph.NewSectorTable(sectorIDs, sectorNames)
	if err != nil {
		return nil, err
	}
	edges, err := graph.NewEdgeTable(graph.EdgeThemeToSector, themeIDs, dst)
	if err != nil {
		return nil, err
	}
	return graph.NewCollection([]*graph.NodeTable{themeTable, sectorTable}, []*graph.EdgeTable{edges}), nil
}

// Sectors returns the distinct sector names in first-appearance order.
func Sectors(themes []Theme) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range themes {
		if !seen[t.Sector] {
			seen[t.Sector] = true
			out = append(out, t.Sector)
		}
	}
	return out
}
