package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"crmcal/internal/calendar"
)

var gridMonth string

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Print a month grid with per-day event counts",
	Example: `  crmcal grid
  crmcal grid --month 2024-02`,
	RunE: runGrid,
}

func init() {
	gridCmd.Flags().StringVarP(&gridMonth, "month", "m", "", "Month to print as YYYY-MM (default: current month)")
}

func runGrid(cmd *cobra.Command, _ []string) error {
	engine := newEngine(cmd.Context(), conf, time.Now())

	view := engine.View()
	if gridMonth != "" {
		t, err := time.Parse("2006-01", gridMonth)
		if err != nil {
			return fmt.Errorf("grid: --month must be YYYY-MM: %w", err)
		}
		view = engine.GoTo(t.Year(), t.Month())
	}

	return renderGrid(cmd.OutOrStdout(), view)
}

// renderGrid writes a fixed-width text calendar. Days with events carry a
// count, today is bracketed, and each event is listed below the grid.
func renderGrid(w io.Writer, view calendar.MonthView) error {
	var b strings.Builder

	title := fmt.Sprintf("%s %d", view.MonthLabel, view.Year)
	fmt.Fprintf(&b, "%*s\n", (7*6+len(title))/2, title)

	for _, d := range view.Weekdays {
		fmt.Fprintf(&b, "%-6s", d)
	}
	b.WriteString("\n")

	var listed []string
	for i, c := range view.Cells {
		switch {
		case c.Padding:
			b.WriteString("      ")
		default:
			day := fmt.Sprintf("%2d", c.Day)
			if c.IsToday {
				day = "[" + day + "]"
			} else {
				day = " " + day + " "
			}
			mark := "  "
			if n := len(c.Events); n > 0 {
				mark = fmt.Sprintf("%-2d", n)
				if n > 9 {
					mark = "+ "
				}
			}
			b.WriteString(day + mark)
			for _, ev := range c.Events {
				listed = append(listed, fmt.Sprintf("%s %s  %-8s %s",
					c.Date.Format(calendar.DayLayout),
					ev.Start.In(c.Date.Location()).Format("15:04"),
					ev.Type, ev.Title))
			}
		}
		if i%7 == 6 {
			b.WriteString("\n")
		}
	}
	if len(view.Cells)%7 != 0 {
		b.WriteString("\n")
	}

	if len(listed) > 0 {
		b.WriteString("\n")
		for _, l := range listed {
			b.WriteString(l + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
