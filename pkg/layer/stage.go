package layer

import (
	"fmt"

	"github.com/dd0wney/cluso-kg/pkg/graph"
)

// Stage is a position in the fixed hierarchy build: Base -> SubIndustry -> Industry ->
// SectorLinked. Every transition moves exactly one step forward.
type Stage int

const (
	Base Stage = iota
	SubIndustry
	Industry
	SectorLinked
)

var stageNames = [...]string{
	Base:         "base",
	SubIndustry:  "sub_industry",
	Industry:     "industry",
	SectorLinked: "sector_linked",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Next returns the stage a transition from s leads to.
func (s Stage) Next() (Stage, bool) {
	if s < Base || s >= SectorLinked {
		return s, false
	}
	return s + 1, true
}

// SectorPolicy decides how Industry nodes are linked to Sector nodes.
type SectorPolicy int

const (
	// SingleSector links every Industry to the run's only Sector and rejects runs with more
	// than one Sector.
	SingleSector SectorPolicy = iota
	// AllPairs links every Industry to every Sector.
	AllPairs
)

func (p SectorPolicy) String() string {
	switch p {
	case SingleSector:
		return "single"
	case AllPairs:
		return "all_pairs"
	default:
		return "unknown"
	}
}

// ParseSectorPolicy converts a configuration value to a SectorPolicy.
func ParseSectorPolicy(s string) (SectorPolicy, error) {
	switch s {
	case "single", "":
		return SingleSector, nil
	case "all_pairs":
		return AllPairs, nil
	default:
		return SingleSector, fmt.Errorf("unknown sector policy %q", s)
	}
}

// Snapshot is the collection reached after a stage. Snapshots are values: a transition
// returns a new one and leaves its input usable.
type Snapshot struct {
	Stage      Stage
	Collection *graph.Collection
}
