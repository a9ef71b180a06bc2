package widget

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Property keys shared with the kernel side.
const (
	KeyRecommendations = "recommendations"
	KeyCurrentVis      = "current_vis"
	KeyIntent          = "intent"
	KeyMessage         = "message"
	KeyExported        = "_exportedVisIdxs"
	KeyDeleted         = "deletedIndices"
)

// CurrentVisKey is the export key used for the current-visualization panel.
const CurrentVisKey = "currentVis"

// VisSpec is an opaque chart description. Only its position matters here.
type VisSpec map[string]interface{}

// Recommendation is one tab of recommended visualizations.
type Recommendation struct {
	Action      string    `json:"action"`
	Description string    `json:"description"`
	Items       []VisSpec `json:"vspec"`
}

// TabID identifies a tab by its recommendation action. CurrentVisTab is
// reserved for the current-visualization panel.
type TabID string

// CurrentVisTab is the sentinel TabID of the current-visualization panel.
// Actions are never empty, so it cannot collide with a recommendation.
const CurrentVisTab TabID = ""

// IsCurrentVis reports whether t is the current-visualization sentinel.
func (t TabID) IsCurrentVis() bool { return t == CurrentVisTab }

// CurrentVisState is the tri-state selection of the current-visualization panel.
type CurrentVisState int

const (
	CurrentVisUnset      CurrentVisState = 0
	CurrentVisSelected   CurrentVisState = -1
	CurrentVisDeselected CurrentVisState = -2
)

func (s CurrentVisState) String() string {
	switch s {
	case CurrentVisUnset:
		return "unset"
	case CurrentVisSelected:
		return "selected"
	case CurrentVisDeselected:
		return "deselected"
	default:
		return fmt.Sprintf("CurrentVisState(%d)", int(s))
	}
}

// ExportMap is the canonical exported-index structure: action -> selected
// indices, plus the whole current visualization when its panel is selected.
// On the wire it is a flat object: {"Correlation":[0,2],"currentVis":{...}}.
type ExportMap struct {
	Actions map[string][]int
	// CurrentVis is non-nil iff the current-visualization panel is exported.
	CurrentVis VisSpec
}

// Len returns the number of export keys.
func (m ExportMap) Len() int {
	n := len(m.Actions)
	if m.CurrentVis != nil {
		n++
	}
	return n
}

// IsEmpty reports whether nothing is exported.
func (m ExportMap) IsEmpty() bool { return m.Len() == 0 }

// Keys returns the export keys sorted, with CurrentVisKey last.
func (m ExportMap) Keys() []string {
	keys := make([]string, 0, m.Len())
	for k := range m.Actions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if m.CurrentVis != nil {
		keys = append(keys, CurrentVisKey)
	}
	return keys
}

// Clone returns a deep copy of the index lists. VisSpecs are shared.
func (m ExportMap) Clone() ExportMap {
	out := ExportMap{Actions: make(map[string][]int, len(m.Actions)), CurrentVis: m.CurrentVis}
	for k, v := range m.Actions {
		out.Actions[k] = append([]int(nil), v...)
	}
	return out
}

// MarshalJSON encodes the flat wire form.
func (m ExportMap) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, m.Len())
	for k, v := range m.Actions {
		if v == nil {
			v = []int{}
		}
		flat[k] = v
	}
	if m.CurrentVis != nil {
		flat[CurrentVisKey] = m.CurrentVis
	}
	return json.Marshal(flat)
}

// UnmarshalJSON decodes the flat wire form. Null or empty entries are
// dropped so a decoded map only carries keys with a selection.
func (m *ExportMap) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	out := ExportMap{Actions: make(map[string][]int, len(flat))}
	for k, raw := range flat {
		if k == CurrentVisKey {
			var spec VisSpec
			if err := json.Unmarshal(raw, &spec); err != nil {
				return fmt.Errorf("export map %q: %w", k, err)
			}
			if spec == nil {
				continue
			}
			out.CurrentVis = spec
			continue
		}
		var idxs []int
		if err := json.Unmarshal(raw, &idxs); err != nil {
			return fmt.Errorf("export map %q: %w", k, err)
		}
		if len(idxs) == 0 {
			continue
		}
		out.Actions[k] = idxs
	}
	*m = out
	return nil
}
