package record

// Prune recursively removes null values.
//
// Scalars are kept unless null. A list is kept when at least one element
// survives pruning; elements that prune away are removed. A map is kept
// when at least one key survives. The second result reports whether the
// value survives at all; a fully-null map is never returned as {}.
func Prune(v Value) (Value, bool) {
	switch v.kind {
	case KindNull:
		return Null(), false
	case KindString, KindInt:
		return v, true
	case KindList:
		items := make([]Value, 0, len(v.items))
		for _, item := range v.items {
			if p, ok := Prune(item); ok {
				items = append(items, p)
			}
		}
		if len(items) == 0 {
			return Null(), false
		}
		return List(items...), true
	case KindMap:
		m := PruneMap(v.obj)
		if m == nil {
			return Null(), false
		}
		return Object(m), true
	}
	return Null(), false
}

// PruneMap returns a pruned copy of m, or nil when nothing survives.
func PruneMap(m *Map) *Map {
	out := NewMap()
	m.Range(func(k string, v Value) bool {
		if p, ok := Prune(v); ok {
			out.Set(k, p)
		}
		return true
	})
	if out.Len() == 0 {
		return nil
	}
	return out
}
