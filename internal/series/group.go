package series

import (
	"sort"

	"github.com/wearlab/sensorsync/internal/model"
)

// TagGroups is a partition of parsed records by type tag. Tags iterate in
// first-seen order and records within a group keep their arrival order, so
// the partition is deterministic for a given input.
type TagGroups struct {
	order  []string
	groups map[string][]model.ParsedRecord
}

// GroupByTag partitions records by their type tag.
func GroupByTag(records []model.ParsedRecord) *TagGroups {
	g := &TagGroups{groups: make(map[string][]model.ParsedRecord)}
	for _, rec := range records {
		if _, seen := g.groups[rec.TypeTag]; !seen {
			g.order = append(g.order, rec.TypeTag)
		}
		g.groups[rec.TypeTag] = append(g.groups[rec.TypeTag], rec)
	}
	return g
}

// Tags returns the type tags in first-seen order.
func (g *TagGroups) Tags() []string { return g.order }

// Group returns the records for one tag in arrival order.
func (g *TagGroups) Group(tag string) []model.ParsedRecord { return g.groups[tag] }

// Len returns the number of distinct tags.
func (g *TagGroups) Len() int { return len(g.order) }

// SortByEpoch stably sorts records ascending by their numeric epoch
// timestamp. Records without a numeric timestamp sort before all numbered
// ones, keeping their arrival order among themselves. Run on each tag group
// before expansion.
func SortByEpoch(records []model.ParsedRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, aok := records[i].TimestampEpochMS.Float64()
		b, bok := records[j].TimestampEpochMS.Float64()
		switch {
		case !aok && !bok:
			return false
		case !aok:
			return true
		case !bok:
			return false
		default:
			return a < b
		}
	})
}
