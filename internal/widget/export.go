package widget

// BuildExportMap derives the exported-index map from the registry.
//
// A recommendation tab contributes action -> indices when its selection is
// non-empty. The current-visualization tab contributes the whole current
// visualization when state is CurrentVisSelected. Tabs whose action no longer
// names a recommendation are dropped.
func BuildExportMap(reg *Registry, recs []Recommendation, state CurrentVisState, currentVis VisSpec) ExportMap {
	out := ExportMap{Actions: make(map[string][]int)}
	if reg == nil {
		return out
	}
	actions := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		actions[rec.Action] = struct{}{}
	}
	for _, tab := range reg.Tabs() {
		if _, ok := actions[string(tab)]; ok && !tab.IsCurrentVis() {
			if sel := reg.Get(tab); len(sel) > 0 {
				out.Actions[string(tab)] = sel
			}
			continue
		}
		if tab.IsCurrentVis() && state == CurrentVisSelected {
			if currentVis == nil {
				currentVis = VisSpec{}
			}
			out.CurrentVis = currentVis
		}
	}
	return out
}
