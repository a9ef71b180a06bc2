package widget

import (
	"slices"
)

// RemoveSelected deletes, in place, the items m exports from each named
// recommendation and returns how many items were removed per action.
//
// Each index list is sorted and de-duplicated first; every later position is
// shifted down by the number of removals already applied in the same action.
// Indices outside the original item list are ignored.
func RemoveSelected(recs []Recommendation, m ExportMap) map[string]int {
	removed := make(map[string]int)
	for i := range recs {
		idxs, ok := m.Actions[recs[i].Action]
		if !ok {
			continue
		}
		items := recs[i].Items
		n := len(items)
		delCount := 0
		for _, idx := range normalizeIndices(idxs) {
			if idx < 0 || idx >= n {
				continue
			}
			pos := idx - delCount
			items = slices.Delete(items, pos, pos+1)
			delCount++
		}
		recs[i].Items = items
		if delCount > 0 {
			removed[recs[i].Action] = delCount
		}
	}
	return removed
}
