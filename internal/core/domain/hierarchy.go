package domain

// HierarchyMap maps a leaf tag to its broader parent tags.
// Expansion is additive: it never removes tags.
type HierarchyMap map[Tag][]Tag

// DefaultHierarchy is the built-in expansion table.
func DefaultHierarchy() HierarchyMap {
	return HierarchyMap{
		"chair":               {"furniture"},
		"sofa":                {"furniture"},
		"table":               {"furniture"},
		"desk":                {"furniture"},
		"storage":             {"furniture"},
		"shelf":               {"furniture"},
		"lighting":            {"furniture"},
		"bed":                 {"furniture"},
		"woodwork":            {"furniture_making"},
		"metalwork":           {"furniture_making"},
		"furniture_making":    {"furniture"},
		"floor_plan":          {"drawing"},
		"perspective":         {"drawing"},
		"aerial_view":         {"drawing"},
		"diagram":             {"drawing"},
		"facade":              {"architecture"},
		"residential":         {"architecture"},
		"commercial":          {"architecture"},
		"public_building":     {"architecture"},
		"architectural_model": {"model", "architecture"},
		"interior":            {"spatial_design"},
		"exhibition_space":    {"spatial_design"},
		"logo":                {"branding"},
		"branding":            {"visual_design"},
		"typography":          {"visual_design"},
		"type_layout":         {"typography"},
		"portrait":            {"photography"},
		"plating":             {"food"},
	}
}

// Parents returns the direct parents of tag.
func (h HierarchyMap) Parents(tag Tag) []Tag {
	return h[tag]
}

// Expand returns tags followed by every ancestor not already present,
// in breadth-first order. Expand is idempotent and Expand(t) ⊇ t.
func (h HierarchyMap) Expand(tags []Tag) []Tag {
	out := make([]Tag, 0, len(tags))
	seen := make(map[Tag]struct{}, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for i := 0; i < len(out); i++ {
		for _, parent := range h[out[i]] {
			if _, ok := seen[parent]; ok {
				continue
			}
			seen[parent] = struct{}{}
			out = append(out, parent)
		}
	}
	return out
}
