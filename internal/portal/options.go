package portal

import (
	"bytes"

	"github.com/godbus/dbus/v5"

	"github.com/werdxz/portty/internal/pipeline"
)

// Option-blob decoding helpers. Portal options arrive as a{sv}; every
// lookup tolerates a missing key or an unexpected type by returning
// the zero value, because callers are untrusted and the portal spec
// marks all of these optional.

func variantBool(options map[string]dbus.Variant, key string) bool {
	v, ok := options[key]
	if !ok {
		return false
	}
	b, _ := v.Value().(bool)
	return b
}

func variantString(options map[string]dbus.Variant, key string) string {
	v, ok := options[key]
	if !ok {
		return ""
	}
	s, _ := v.Value().(string)
	return s
}

// variantBytesPath decodes an "ay" value holding a NUL-terminated
// filesystem path, the wire shape of current_folder and current_file.
func variantBytesPath(options map[string]dbus.Variant, key string) string {
	v, ok := options[key]
	if !ok {
		return ""
	}
	raw, _ := v.Value().([]byte)
	return string(bytes.TrimRight(raw, "\x00"))
}

// variantByteLists decodes an "aay" value (e.g. save-files candidate
// names) into strings.
func variantByteLists(options map[string]dbus.Variant, key string) []string {
	v, ok := options[key]
	if !ok {
		return nil
	}
	raw, _ := v.Value().([][]byte)
	out := make([]string, 0, len(raw))
	for _, b := range raw {
		out = append(out, string(bytes.TrimRight(b, "\x00")))
	}
	return out
}

// variantFilters decodes the "a(sa(us))" filter list: a named list of
// (kind, pattern) pairs where kind 0 is a glob and kind 1 a MIME type.
func variantFilters(options map[string]dbus.Variant, key string) []pipeline.Filter {
	v, ok := options[key]
	if !ok {
		return nil
	}
	raw, ok := v.Value().([][]any)
	if !ok {
		return nil
	}

	var filters []pipeline.Filter
	for _, entry := range raw {
		if len(entry) != 2 {
			continue
		}
		name, _ := entry[0].(string)
		pats, _ := entry[1].([][]any)
		f := pipeline.Filter{Name: name}
		for _, p := range pats {
			if len(p) != 2 {
				continue
			}
			kind, _ := p[0].(uint32)
			pattern, _ := p[1].(string)
			kindName := "glob"
			if kind == 1 {
				kindName = "mime"
			}
			f.Patterns = append(f.Patterns, pipeline.FilterPattern{Kind: kindName, Pattern: pattern})
		}
		filters = append(filters, f)
	}
	return filters
}
