package widget

import (
	"luxview/internal/jsonutil"
	"luxview/internal/store"
)

// decodeRecommendations reads the recommendations property. A missing key
// yields an empty list.
func decodeRecommendations(s store.Store) ([]Recommendation, error) {
	raw, ok := s.Get(KeyRecommendations)
	if !ok || raw == nil {
		return []Recommendation{}, nil
	}
	var recs []Recommendation
	if err := jsonutil.Convert(raw, &recs, "decode "+KeyRecommendations); err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []Recommendation{}
	}
	return recs, nil
}

// decodeCurrentVis reads current_vis. Anything but a non-empty object
// (the kernel sends [] when there is none) means no current visualization.
func decodeCurrentVis(s store.Store) VisSpec {
	raw, ok := s.Get(KeyCurrentVis)
	if !ok {
		return nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok || len(m) == 0 {
		return nil
	}
	return VisSpec(m)
}

func decodeString(s store.Store, key string) string {
	raw, ok := s.Get(key)
	if !ok {
		return ""
	}
	if str, ok := raw.(string); ok {
		return str
	}
	return jsonutil.ToString(raw)
}
