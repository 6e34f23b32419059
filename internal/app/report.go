package app

import (
	"fmt"
	"io"
	"sort"
	"time"

	"opnet/internal/driver"
)

// renderReport writes the human-readable per-group summary.
func renderReport(w io.Writer, report *driver.Report) {
	fmt.Fprintf(w, "network %q: %d repeat group(s) in %s\n",
		report.Network, len(report.Groups), report.Elapsed.Round(time.Millisecond))

	for _, g := range report.Groups {
		verdict := "ok"
		if g.Failed() {
			verdict = "failed"
		}
		fmt.Fprintf(w, "\ngroup %d: %s (%s)\n", g.Group, verdict, g.Elapsed.Round(time.Millisecond))

		blocked := make(map[string]bool, len(g.Blocked))
		for _, id := range g.Blocked {
			blocked[id] = true
		}

		ids := make([]string, 0, len(g.States))
		for id := range g.States {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			switch {
			case blocked[id]:
				fmt.Fprintf(w, "  %-32s blocked\n", id)
			case g.Errors[id] != nil:
				fmt.Fprintf(w, "  %-32s failed: %v\n", id, g.Errors[id].Err)
			default:
				fmt.Fprintf(w, "  %-32s %s\n", id, g.States[id])
			}
		}

		if len(g.Shared) > 0 {
			keys := make([]string, 0, len(g.Shared))
			for k := range g.Shared {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintln(w, "  shared state:")
			for _, k := range keys {
				fmt.Fprintf(w, "    %s = %v\n", k, g.Shared[k])
			}
		}
	}
}
