package model

import "strings"

// RoleMap maps Win32 window class names to compact role codes.
var RoleMap = map[string]string{
	"button":            "btn",
	"edit":              "input",
	"richedit":          "input",
	"richedit20a":       "input",
	"richedit20w":       "input",
	"richedit50w":       "input",
	"textbox":           "input",
	"static":            "txt",
	"syslink":           "lnk",
	"combobox":          "list",
	"listbox":           "list",
	"syslistview32":     "list",
	"systreeview32":     "list",
	"msctls_progress32": "progress",
	"#32770":            "window",
}

// InputClasses are the control classes that accept typed text.
var InputClasses = []string{"Edit", "TextBox", "RichEdit", "RichEdit20A", "RichEdit20W", "RICHEDIT50W"}

// MetaRoles maps meta-role names to the concrete roles they expand to.
var MetaRoles = map[string][]string{
	"interactive": {"btn", "input", "chk", "radio", "list", "lnk"},
}

// ExpandRoles expands any meta-roles in the given list to their concrete roles.
// Non-meta roles are passed through unchanged. Duplicates are removed.
func ExpandRoles(roles []string) []string {
	seen := make(map[string]bool, len(roles))
	var expanded []string
	for _, r := range roles {
		if concrete, ok := MetaRoles[r]; ok {
			for _, c := range concrete {
				if !seen[c] {
					seen[c] = true
					expanded = append(expanded, c)
				}
			}
		} else if !seen[r] {
			seen[r] = true
			expanded = append(expanded, r)
		}
	}
	return expanded
}

// MapRole converts a window class name to a compact code.
// Class names are compared case-insensitively; WinForms classes such as
// "WindowsForms10.BUTTON.app.0.141b42a_r6_ad1" are reduced to their
// inner class name first.
func MapRole(class string) string {
	key := strings.ToLower(class)
	if strings.HasPrefix(key, "windowsforms10.") {
		if parts := strings.Split(key, "."); len(parts) > 1 {
			key = parts[1]
		}
	}
	if short, ok := RoleMap[key]; ok {
		return short
	}
	return "other"
}

// IsInputClass reports whether class names a text-entry control.
func IsInputClass(class string) bool {
	return MapRole(class) == "input"
}

// ClassMatches reports whether class is one of accepted (case-insensitive).
// An empty accepted list matches every class.
func ClassMatches(class string, accepted []string) bool {
	if len(accepted) == 0 {
		return true
	}
	for _, a := range accepted {
		if strings.EqualFold(class, a) || (MapRole(a) != "other" && MapRole(class) == MapRole(a)) {
			return true
		}
	}
	return false
}
