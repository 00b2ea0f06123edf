package testman

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/testman-sync/types"
)

// ConsoleFormatter renders sync summaries for the terminal.
type ConsoleFormatter struct {
	out io.Writer
}

// NewConsoleFormatter creates a formatter writing to out, defaulting to
// stdout when out is nil.
func NewConsoleFormatter(out io.Writer) *ConsoleFormatter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleFormatter{out: out}
}

// PrintCaseSummary renders the outcome of a catalog sync.
func (f *ConsoleFormatter) PrintCaseSummary(summary *CaseSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetTitle(fmt.Sprintf("Test Case Sync %s (%s)", summary.Project, formatDuration(summary.Duration)))

	t.AppendHeader(table.Row{"Outcome", "Cases"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Cases", Align: text.AlignRight},
	})

	t.AppendRow(table.Row{"Created", summary.Created})
	t.AppendRow(table.Row{"Existing", summary.Existing})
	t.AppendRow(table.Row{"Updated", summary.Updated})
	t.AppendRow(table.Row{"Collected", summary.Collected})
	t.AppendRow(table.Row{"Failed", summary.Failed})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Modules", summary.Modules})
	t.AppendRow(table.Row{"Requirements created", summary.Requirements})

	if summary.Failed > 0 {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	t.AppendFooter(table.Row{"TOTAL", summary.Total})
	t.Render()
}

// PrintRunSummary renders the outcome of a results import.
func (f *ConsoleFormatter) PrintRunSummary(summary *RunSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetTitle(fmt.Sprintf("Test Run %s (%s)", summary.RunID, formatDuration(summary.Duration)))

	t.AppendHeader(table.Row{"Status", "Records"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Records", Align: text.AlignRight},
	})

	for _, status := range types.StatusOrder {
		t.AppendRow(table.Row{status.Label(), summary.Results[status]})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Attached", summary.Attached})
	t.AppendRow(table.Row{"Failed to attach", summary.Failed})

	if summary.Failed > 0 {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	} else if summary.Results[types.StatusFailure]+summary.Results[types.StatusError] > 0 {
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	t.AppendFooter(table.Row{"TOTAL", summary.Total})
	t.Render()
}

// PrintResultCounts prints one "Passed: N" line per execution status, the
// plain form consumed by CI scripts.
func (f *ConsoleFormatter) PrintResultCounts(results types.Summary) {
	for _, status := range types.StatusOrder {
		fmt.Fprintf(f.out, "%s: %d\n", status.Label(), results[status])
	}
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
