package command

import "github.com/s-dimaio/JavahOn-sub000/internal/parameter"

// SettingKeys returns the sorted union of parameter keys across all siblings.
func (c *Command) SettingKeys() []string {
	return sortedKeys(c.AvailableSettings())
}

// AvailableSettings merges the parameters of all siblings by key.
//
// When two siblings expose the same key, a non-Fixed parameter wins over a
// Fixed one; otherwise the one with strictly more selectable values wins and
// ties keep the first seen (siblings are visited in sorted order). Only the
// number of options is compared, never their members.
func (c *Command) AvailableSettings() map[string]parameter.Parameter {
	result := make(map[string]parameter.Parameter)
	categories := c.Categories()
	for _, name := range sortedKeys(categories) {
		for key, p := range categories[name].parameters {
			if existing, ok := result[key]; ok {
				result[key] = moreOptions(existing, p)
				continue
			}
			result[key] = p
		}
	}
	return result
}

func moreOptions(first, second parameter.Parameter) parameter.Parameter {
	firstFixed := first.Kind() == parameter.KindFixed
	secondFixed := second.Kind() == parameter.KindFixed
	switch {
	case firstFixed && !secondFixed:
		return second
	case secondFixed && !firstFixed:
		return first
	case optionCount(second) > optionCount(first):
		return second
	default:
		return first
	}
}

func optionCount(p parameter.Parameter) int {
	if r, ok := p.(*parameter.Range); ok {
		return r.Count()
	}
	return len(p.Values())
}
