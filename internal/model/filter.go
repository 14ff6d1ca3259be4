package model

import "sort"

// FilterControls applies filters to a slice of controls, returning only
// matching controls. It filters by roles, bounding box and visibility.
// Roles may include meta-roles such as "interactive".
func FilterControls(controls []Control, roles []string, bbox *Rect, visibleOnly bool) []Control {
	if len(roles) == 0 && bbox == nil && !visibleOnly {
		return controls
	}

	roleSet := make(map[string]bool, len(roles))
	for _, r := range ExpandRoles(roles) {
		roleSet[r] = true
	}

	var result []Control
	for _, c := range controls {
		if visibleOnly && !c.Visible {
			continue
		}
		if len(roleSet) > 0 && !roleSet[c.Role] {
			continue
		}
		if bbox != nil && !c.Rect.Intersects(*bbox) {
			continue
		}
		result = append(result, c)
	}
	return result
}

// SortByPosition orders controls top-to-bottom, then left-to-right.
// Controls whose tops are within rowTolerance pixels are treated as one row.
func SortByPosition(controls []Control, rowTolerance int) {
	sort.SliceStable(controls, func(i, j int) bool {
		a, b := controls[i].Rect, controls[j].Rect
		if d := a.Top - b.Top; d > rowTolerance || d < -rowTolerance {
			return a.Top < b.Top
		}
		return a.Left < b.Left
	})
}
