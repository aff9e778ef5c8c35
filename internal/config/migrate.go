package config

// migration upgrades a raw settings tree written by an older release to the
// shape expected by the next version. Steps receive a tree they own.
type migration struct {
	version int
	apply   func(raw map[string]any) map[string]any
}

var migrations = []migration{
	{version: 1, apply: migrateToV1},
	{version: 2, apply: migrateToV2},
	{version: 3, apply: migrateToV3},
	{version: 4, apply: migrateToV4},
	{version: 5, apply: migrateToV5},
}

// Migrate applies every step newer than the tree's settings_version and
// stamps the result with CurrentSettingsVersion. The input is not modified.
func Migrate(raw map[string]any) (map[string]any, int) {
	out := copyTree(raw)
	from := intValue(out["settings_version"])

	for _, m := range migrations {
		if from < m.version {
			out = m.apply(out)
		}
	}
	out["settings_version"] = CurrentSettingsVersion
	return out, from
}

func migrateToV1(raw map[string]any) map[string]any {
	return raw
}

// v2 introduced wikilink formatting for list-valued fields.
func migrateToV2(raw map[string]any) map[string]any {
	fields, ok := raw["fields"].(map[string]any)
	if !ok {
		return raw
	}
	for _, key := range []string{"authors", "contributors", "series", "publisher", "genres"} {
		field, ok := fields[key].(map[string]any)
		if !ok {
			continue
		}
		if _, set := field["wikilinks"]; !set {
			field["wikilinks"] = false
		}
	}
	return raw
}

// v3 introduced folder grouping.
func migrateToV3(raw map[string]any) map[string]any {
	if _, ok := raw["grouping"]; !ok {
		raw["grouping"] = map[string]any{
			"enabled":  false,
			"group_by": GroupByAuthor,
		}
	}
	return raw
}

// v4 introduced the lists field.
func migrateToV4(raw map[string]any) map[string]any {
	fields, ok := raw["fields"].(map[string]any)
	if !ok {
		fields = map[string]any{}
		raw["fields"] = fields
	}
	if _, ok := fields["lists"]; !ok {
		fields["lists"] = map[string]any{
			"enabled":       false,
			"property_name": "lists",
			"wikilinks":     false,
		}
	}
	return raw
}

// v5 introduced the author name format for grouping folders.
func migrateToV5(raw map[string]any) map[string]any {
	grouping, ok := raw["grouping"].(map[string]any)
	if !ok {
		return raw
	}
	if _, set := grouping["author_format"]; !set {
		grouping["author_format"] = AuthorFormatFirstLast
	}
	return raw
}

func copyTree(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if m, ok := v.(map[string]any); ok {
			out[k] = copyTree(m)
			continue
		}
		out[k] = v
	}
	return out
}

func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
