package driver

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/metropipe/metropipe/internal/planner"
)

var (
	upToDateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	upstreamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	outdatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// renderDryRun prints the Step order colored by status: green for
// up-to-date Steps that would be skipped, yellow for Steps rerun because
// an upstream Step is outdated, red bold for directly outdated Steps.
func (d *Driver) renderDryRun(plan *planner.Plan) {
	if len(plan.Steps) == 0 {
		fmt.Fprintln(d.out, "nothing to do: no step is defined")
		return
	}

	for i, inst := range plan.Steps {
		name := inst.Name()
		var line string
		switch {
		case plan.Outdated[name]:
			line = outdatedStyle.Render(fmt.Sprintf("%d. %s (outdated)", i+1, name))
		case plan.ToRun[name]:
			line = upstreamStyle.Render(fmt.Sprintf("%d. %s (rerun: upstream outdated)", i+1, name))
		default:
			line = upToDateStyle.Render(fmt.Sprintf("%d. %s (up to date)", i+1, name))
		}
		fmt.Fprintln(d.out, line)
	}

	for _, o := range plan.Orphans {
		fmt.Fprintln(d.out, upstreamStyle.Render(fmt.Sprintf("orphan: %s (%s)", o.Class().Name, o.Path())))
	}
}
