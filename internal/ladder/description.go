package ladder

import "benritz/gilts/internal/lp"

// Description is a deferred event/row label: its final text depends on LP
// variables that are only assigned once the ladder has been solved.
type Description struct {
	render func(*lp.Solution) string
}

// NewDescription wraps a render function that reads the solution.
func NewDescription(render func(*lp.Solution) string) Description {
	return Description{render: render}
}

// StaticDescription wraps a label with no LP-dependent content.
func StaticDescription(text string) Description {
	return Description{render: func(*lp.Solution) string { return text }}
}

// Render realises the description against a solved problem.
func (d Description) Render(sol *lp.Solution) string {
	if d.render == nil {
		return ""
	}
	return d.render(sol)
}
