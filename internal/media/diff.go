package media

import (
	"sort"

	"github.com/starford/lauf/internal/content"
)

// DiffResult classifies the media ids of an editing session relative to the
// content snapshot taken when the session opened.
type DiffResult struct {
	// NewlyReferenced: in after but not in the snapshot. Uploaded during this
	// session; deleted on discard.
	NewlyReferenced []string
	// StillReferenced: in both. Never deleted as a side effect of the session.
	StillReferenced []string
	// Removed: in the snapshot but no longer in after. Deleted on save of a
	// persisted entry, since nothing else references them.
	Removed []string
}

// Diff computes the set differences between the image references of the
// snapshot content (nil for a brand-new draft) and the dumped content.
// Duplicated references collapse; order is not significant and the result
// slices come back sorted.
func Diff(before, after []content.Node) DiffResult {
	beforeSet := refSet(before)
	afterSet := refSet(after)

	var d DiffResult
	for id := range afterSet {
		if _, ok := beforeSet[id]; ok {
			d.StillReferenced = append(d.StillReferenced, id)
		} else {
			d.NewlyReferenced = append(d.NewlyReferenced, id)
		}
	}
	for id := range beforeSet {
		if _, ok := afterSet[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}
	sort.Strings(d.NewlyReferenced)
	sort.Strings(d.StillReferenced)
	sort.Strings(d.Removed)
	return d
}

func refSet(nodes []content.Node) map[string]struct{} {
	set := make(map[string]struct{})
	for _, id := range content.MediaRefs(nodes) {
		set[id] = struct{}{}
	}
	return set
}
