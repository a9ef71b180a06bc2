package ui

import (
	"fmt"
	"sort"
	"strings"

	"luxview/internal/jsonutil"
	"luxview/internal/ui/textutil"
	"luxview/internal/widget"
)

const maxSummaryLen = 72

// summarizeVis renders a one-line description of a chart spec: its title,
// or its mark and encoded fields, or its top-level scalar properties.
func summarizeVis(v widget.VisSpec) string {
	if v == nil {
		return ""
	}
	if t := jsonutil.GetString(v, "title"); t != "" {
		return truncate(t)
	}

	var parts []string
	switch mark := v["mark"].(type) {
	case string:
		parts = append(parts, mark)
	case map[string]interface{}:
		if t := jsonutil.GetString(mark, "type"); t != "" {
			parts = append(parts, t)
		}
	}
	if enc := jsonutil.GetMap(v, "encoding"); enc != nil {
		channels := make([]string, 0, len(enc))
		for ch := range enc {
			channels = append(channels, ch)
		}
		sort.Strings(channels)
		for _, ch := range channels {
			if field := jsonutil.GetString(jsonutil.GetMap(enc, ch), "field"); field != "" {
				parts = append(parts, ch+"="+field)
			}
		}
	}
	if len(parts) > 0 {
		return truncate(strings.Join(parts, " "))
	}

	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v[k].(type) {
		case map[string]interface{}, []interface{}:
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", k, jsonutil.ToString(v[k])))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("chart (%d properties)", len(v))
	}
	return truncate(strings.Join(parts, " "))
}

func truncate(s string) string {
	return textutil.Truncate(s, maxSummaryLen)
}
