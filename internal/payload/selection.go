package payload

import (
	"fmt"
	"slices"
)

// LifePalace is the fixed analysis target.
const LifePalace = "命宫"

// PalaceNames are the twelve palace names in chart order.
var PalaceNames = []string{
	"命宫", "兄弟", "夫妻", "子女", "财帛", "疾厄",
	"迁移", "仆役", "官禄", "田宅", "福德", "父母",
}

// Selection is the set of target palaces: the fixed life palace plus extra
// palaces in the order they were selected. Extras never repeat and never
// contain the life palace.
type Selection struct {
	extras []string
}

// NewSelection toggles each name in turn onto an empty selection.
func NewSelection(names ...string) (Selection, error) {
	var s Selection
	for _, n := range names {
		next, err := s.Toggle(n)
		if err != nil {
			return Selection{}, err
		}
		s = next
	}
	return s, nil
}

// Toggle adds name to the extras, or removes it if already present.
// Toggling the life palace is a no-op.
func (s Selection) Toggle(name string) (Selection, error) {
	if !slices.Contains(PalaceNames, name) {
		return s, fmt.Errorf("unknown palace %q", name)
	}
	if name == LifePalace {
		return s, nil
	}
	if i := slices.Index(s.extras, name); i >= 0 {
		return Selection{extras: slices.Delete(slices.Clone(s.extras), i, i+1)}, nil
	}
	return Selection{extras: append(slices.Clone(s.extras), name)}, nil
}

// Fixed returns the fixed targets.
func (s Selection) Fixed() []string { return []string{LifePalace} }

// Extras returns the user-selected targets in selection order.
func (s Selection) Extras() []string {
	out := make([]string, len(s.extras))
	copy(out, s.extras)
	return out
}

// Targets returns the fixed targets followed by the extras.
func (s Selection) Targets() []string {
	return append(s.Fixed(), s.extras...)
}
