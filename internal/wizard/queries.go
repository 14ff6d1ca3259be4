package wizard

import (
	"fmt"
	"sort"

	"github.com/mj1618/wizard-pilot/internal/model"
	"github.com/mj1618/wizard-pilot/internal/platform"
	"github.com/mj1618/wizard-pilot/internal/shape"
)

// Queries are the element descriptions each step resolves.
type Queries struct {
	Next    model.ElementQuery
	Accept  model.ElementQuery
	Install model.ElementQuery
	Finish  model.ElementQuery
	Close   model.ElementQuery

	ServerLabel  model.ElementQuery
	TagLabel     model.ElementQuery
	LicenseLabel model.ElementQuery
}

var buttonClasses = []string{"Button"}
var labelClasses = []string{"Static"}

// DefaultQueries returns English and French captions of a Windows
// Installer wizard.
func DefaultQueries() Queries {
	sig := shape.DefaultButtonSignature
	return Queries{
		Next: model.ElementQuery{
			Name:    "Next button",
			Role:    "btn",
			Texts:   []string{"&Next >", "Next >", "Next", "Suivant >", "Suivant"},
			Classes: buttonClasses,
			Shape:   &sig,
		},
		Accept: model.ElementQuery{
			Name:    "I accept option",
			Role:    "btn",
			Texts:   []string{"I accept", "J'accepte", "accept", "accepte"},
			Classes: buttonClasses,
			Exclude: []string{"not", "pas"},
		},
		Install: model.ElementQuery{
			Name:    "Install button",
			Role:    "btn",
			Texts:   []string{"&Install", "Install", "Installer", "Install >"},
			Classes: buttonClasses,
			Shape:   &sig,
		},
		Finish: model.ElementQuery{
			Name:    "Finish button",
			Role:    "btn",
			Texts:   []string{"&Finish", "Finish", "Terminer"},
			Classes: buttonClasses,
		},
		Close: model.ElementQuery{
			Name:    "Close button",
			Role:    "btn",
			Texts:   []string{"&Close", "Close", "Fermer"},
			Classes: buttonClasses,
		},
		ServerLabel: model.ElementQuery{
			Name:    "server address label",
			Role:    "txt",
			Texts:   []string{"Server address", "Adresse serveur", "Adresse du serveur", "Server", "Serveur"},
			Classes: labelClasses,
		},
		TagLabel: model.ElementQuery{
			Name:    "tag label",
			Role:    "txt",
			Texts:   []string{"Tag", "Étiquette"},
			Classes: labelClasses,
		},
		LicenseLabel: model.ElementQuery{
			Name:    "license key label",
			Role:    "txt",
			Texts:   []string{"License key", "Clé de licence", "License", "Licence"},
			Classes: labelClasses,
		},
	}
}

func (q *Queries) byKey() map[string]*model.ElementQuery {
	return map[string]*model.ElementQuery{
		"next":    &q.Next,
		"accept":  &q.Accept,
		"install": &q.Install,
		"finish":  &q.Finish,
		"close":   &q.Close,
		"server":  &q.ServerLabel,
		"tag":     &q.TagLabel,
		"license": &q.LicenseLabel,
	}
}

// QueryKeys lists the names accepted by Override.
func QueryKeys() []string {
	var q Queries
	keys := make([]string, 0, 8)
	for k := range q.byKey() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Override replaces caption variants and fallback points by query key
// ("next", "server", ...). Points use "x,y" form.
func (q *Queries) Override(texts map[string][]string, fallbacks map[string][]string) error {
	byKey := q.byKey()
	for k, v := range texts {
		target, ok := byKey[k]
		if !ok {
			return fmt.Errorf("unknown query %q in texts (valid: %v)", k, QueryKeys())
		}
		if len(v) > 0 {
			*target = target.WithTexts(v...)
		}
	}
	for k, v := range fallbacks {
		target, ok := byKey[k]
		if !ok {
			return fmt.Errorf("unknown query %q in fallbacks (valid: %v)", k, QueryKeys())
		}
		points := make([]model.Point, 0, len(v))
		for _, s := range v {
			p, err := platform.ParsePoint(s)
			if err != nil {
				return fmt.Errorf("fallback for %s: %w", k, err)
			}
			points = append(points, p)
		}
		target.Fallback = points
	}
	return nil
}

// DisableShapes removes colour signatures from every query.
func (q *Queries) DisableShapes() {
	for _, target := range q.byKey() {
		target.Shape = nil
	}
}
