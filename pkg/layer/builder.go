// Package layer builds the cluster layers of the hierarchy on top of a validated base
// collection of Theme and Sector tables.
//
// A transition takes externally computed cluster labels aligned with the rows of the
// previous layer, creates one node per distinct label, moves the new ids past the current
// maximum, links each child row to the node of its label and validates the result after
// every append.
package layer

import (
	"fmt"
	"sort"
	"time"

	"github.com/dd0wney/cluso-kg/pkg/constraints"
	"github.com/dd0wney/cluso-kg/pkg/graph"
	"github.com/dd0wney/cluso-kg/pkg/idalloc"
	"github.com/dd0wney/cluso-kg/pkg/logging"
	"github.com/dd0wney/cluso-kg/pkg/metrics"
	"github.com/dd0wney/cluso-kg/pkg/sortjoin"
)

// Options configures a Builder. Zero values are usable: a nil Logger discards output and
// a nil Metrics records nothing.
type Options struct {
	Logger       logging.Logger
	Metrics      *metrics.Registry
	SectorPolicy SectorPolicy
}

// Builder runs layer transitions. It holds no graph state; every call works on the
// snapshot it is given.
type Builder struct {
	logger  logging.Logger
	metrics *metrics.Registry
	policy  SectorPolicy
}

// New creates a Builder.
func New(opts Options) *Builder {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Builder{
		logger:  logger.With(logging.Component("layer")),
		metrics: opts.Metrics,
		policy:  opts.SectorPolicy,
	}
}

// Base validates c strictly and wraps it as the Base snapshot. c must hold a Theme table.
func (b *Builder) Base(c *graph.Collection) (Snapshot, error) {
	if _, ok := c.Nodes(graph.NodeTheme); !ok {
		return Snapshot{}, graph.PreconditionError(Base.String(), graph.NodeTheme.String(), "base collection has no theme table")
	}
	if err := b.validate(Base, c, nil); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Stage: Base, Collection: c}, nil
}

// SubIndustries groups Theme rows into SubIndustry nodes. labels[i] is the cluster of the
// i-th Theme row.
func (b *Builder) SubIndustries(s Snapshot, labels []graph.ClusterLabel) (Snapshot, error) {
	return b.cluster(s, Base, graph.EdgeThemeToSubIndustry, labels)
}

// Industries groups SubIndustry rows into Industry nodes. labels[i] is the cluster of the
// i-th SubIndustry row.
func (b *Builder) Industries(s Snapshot, labels []graph.ClusterLabel) (Snapshot, error) {
	return b.cluster(s, SubIndustry, graph.EdgeSubIndustryToIndustry, labels)
}

func (b *Builder) cluster(s Snapshot, from Stage, etype graph.EdgeType, labels []graph.ClusterLabel) (out Snapshot, err error) {
	to, _ := from.Next()
	stage := to.String()
	timer := b.begin(to)
	defer func() { b.finish(to, timer, out, err) }()

	if s.Stage != from {
		return Snapshot{}, graph.PreconditionError(stage, "",
			fmt.Sprintf("transition requires stage %s, snapshot is at %s", from, s.Stage))
	}
	childType, parentType := etype.Source(), etype.Target()
	children, ok := s.Collection.Nodes(childType)
	if !ok {
		return Snapshot{}, graph.PreconditionError(stage, childType.String(), "no table to cluster")
	}
	if len(labels) != children.Len() {
		return Snapshot{}, graph.PreconditionError(stage, childType.String(),
			fmt.Sprintf("expected %d labels, got %d", children.Len(), len(labels)))
	}

	uniq := distinct(labels)
	fresh, err := graph.NewClusterTable(parentType, denseIDs(len(uniq)), uniq)
	if err != nil {
		return Snapshot{}, err
	}
	parents, err := idalloc.Reassign(fresh, s.Collection)
	if err != nil {
		return Snapshot{}, err
	}
	if b.metrics != nil {
		b.metrics.RecordAllocation(parentType.String(), parents.Len())
	}
	if parents.Len() > 0 {
		b.logger.Debug("allocated ids", logging.Stage(stage), logging.Table(parentType),
			logging.IDRange(int64(parents.ID(0)), int64(parents.ID(parents.Len()-1))))
	}

	withNodes := s.Collection.AppendNodes(parents)
	if err := b.validate(to, withNodes, parents.IDs()); err != nil {
		return Snapshot{}, err
	}

	pos, err := sortjoin.Join(parents.Labels(), labels)
	if err != nil {
		return Snapshot{}, graph.JoinError(stage, parentType.String(), err)
	}
	if b.metrics != nil {
		b.metrics.RecordJoin("layer", len(labels))
	}
	dst := make([]graph.NodeID, len(pos))
	for i, p := range pos {
		dst[i] = parents.ID(p)
	}
	edges, err := graph.NewEdgeTable(etype, children.IDs(), dst)
	if err != nil {
		return Snapshot{}, err
	}

	withEdges := withNodes.AppendEdges(edges)
	if err := b.validate(to, withEdges, nil); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Stage: to, Collection: withEdges}, nil
}

// LinkSectors links every Industry node to the Sector nodes. Under SingleSector the run
// must hold exactly one Sector; AllPairs links every pair and logs a warning when there
// is more than one.
func (b *Builder) LinkSectors(s Snapshot) (out Snapshot, err error) {
	stage := SectorLinked.String()
	timer := b.begin(SectorLinked)
	defer func() { b.finish(SectorLinked, timer, out, err) }()

	if s.Stage != Industry {
		return Snapshot{}, graph.PreconditionError(stage, "",
			fmt.Sprintf("transition requires stage %s, snapshot is at %s", Industry, s.Stage))
	}
	industries, ok := s.Collection.Nodes(graph.NodeIndustry)
	if !ok {
		return Snapshot{}, graph.PreconditionError(stage, graph.NodeIndustry.String(), "no industry table")
	}
	sectors, ok := s.Collection.Nodes(graph.NodeSector)
	if !ok || sectors.Len() == 0 {
		return Snapshot{}, graph.PreconditionError(stage, graph.NodeSector.String(), "no sector nodes")
	}
	if sectors.Len() > 1 {
		if b.policy != AllPairs {
			return Snapshot{}, graph.PreconditionError(stage, graph.NodeSector.String(),
				fmt.Sprintf("%d sectors found; industry to sector provenance is not tracked, use sector policy %s to link all pairs",
					sectors.Len(), AllPairs))
		}
		b.logger.Warn("linking every industry to every sector",
			logging.Stage(stage), logging.Count(sectors.Len()), logging.String("policy", b.policy.String()))
	}

	src := make([]graph.NodeID, 0, industries.Len()*sectors.Len())
	dst := make([]graph.NodeID, 0, industries.Len()*sectors.Len())
	for _, ind := range industries.IDs() {
		for _, sec := range sectors.IDs() {
			src = append(src, ind)
			dst = append(dst, sec)
		}
	}
	edges, err := graph.NewEdgeTable(graph.EdgeIndustryToSector, src, dst)
	if err != nil {
		return Snapshot{}, err
	}

	linked := s.Collection.AppendEdges(edges)
	if err := b.validate(SectorLinked, linked, nil); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Stage: SectorLinked, Collection: linked}, nil
}

func (b *Builder) validate(stage Stage, c *graph.Collection, pending []graph.NodeID) error {
	start := time.Now()
	var err error
	if pending != nil {
		err = constraints.ValidatePending(stage.String(), c, pending)
	} else {
		err = constraints.Validate(stage.String(), c)
	}
	if b.metrics != nil {
		b.metrics.RecordValidation(stage.String(), err, time.Since(start))
	}
	return err
}

func (b *Builder) begin(to Stage) *logging.TimedOperation {
	return logging.StartTimer(b.logger, "layer transition", logging.Stage(to.String()))
}

func (b *Builder) finish(to Stage, timer *logging.TimedOperation, out Snapshot, err error) {
	if b.metrics != nil {
		b.metrics.RecordTransition(to.String(), err, timer.Elapsed())
	}
	if err != nil {
		timer.EndError(err)
		return
	}
	timer.End(logging.Nodes(out.Collection.NumNodes()), logging.Edges(out.Collection.NumEdges()))
}

// distinct returns the distinct labels in ascending order.
func distinct(labels []graph.ClusterLabel) []graph.ClusterLabel {
	sorted := make([]graph.ClusterLabel, len(labels))
	copy(sorted, labels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	out := sorted[:0]
	for _, l := range sorted {
		if len(out) == 0 || l != out[len(out)-1] {
			out = append(out, l)
		}
	}
	return out
}

func denseIDs(n int) []graph.NodeID {
	ids := make([]graph.NodeID, n)
	for i := range ids {
		ids[i] = graph.NodeID(i)
	}
	return ids
}
