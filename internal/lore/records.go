package lore

import (
	"time"

	"github.com/grbellar/lore-tracker-sub000/internal/graph"
)

// recordMap returns the row as a property map when it is one.
func recordMap(rec graph.Record) map[string]any {
	m, _ := rec.(map[string]any)
	return m
}

// fieldMap digs a named field out of a multi-field row.
func fieldMap(row map[string]any, key string) map[string]any {
	m, _ := row[key].(map[string]any)
	return m
}

func propString(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

func propStrings(props map[string]any, key string) []string {
	switch v := props[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func propTime(props map[string]any, key string) time.Time {
	t, _ := props[key].(time.Time)
	return t
}

// refsFrom decodes a projected list of {id, name} maps.
func refsFrom(v any) []Ref {
	items, _ := v.([]any)
	refs := make([]Ref, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		refs = append(refs, Ref{ID: propString(m, "id"), Name: propString(m, "name")})
	}
	return refs
}
