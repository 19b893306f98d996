package jobs

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/europeana/metis-tools/internal/core/domain"
	"github.com/europeana/metis-tools/internal/core/outcome"
)

// WriteTable prints one table per plugin type with the latest outcome of
// every dataset.
func WriteTable(w io.Writer, agg *outcome.Aggregator) error {
	bold := color.New(color.Bold)

	categories := agg.Categories()
	if len(categories) == 0 {
		_, err := fmt.Fprintln(w, "No executions found")
		return err
	}

	for _, category := range categories {
		view := agg.Get(category)
		if _, err := bold.Fprintf(w, "%s (%d datasets)\n", category, view.Len()); err != nil {
			return err
		}

		tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(tw, "DATASET\tRUN\tSTATUS\tRECORDS\tSTARTED")
		for i := 0; i < view.Len(); i++ {
			o := view.At(i)
			_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n",
				o.DatasetID,
				o.RunID,
				colorStatus(o.Payload.Status),
				o.Payload.RecordsProcessed,
				formatTime(o.Payload.StartedAt),
			)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w)
	}
	return nil
}

// WriteJSON writes the retained outcomes keyed by plugin type.
func WriteJSON(w io.Writer, agg *outcome.Aggregator) error {
	out := make(map[domain.PluginType]outcome.View)
	for _, category := range agg.Categories() {
		out[category] = agg.Get(category)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func colorStatus(status domain.ExecutionStatus) string {
	switch status {
	case domain.ExecutionStatusFinished:
		return color.GreenString(string(status))
	case domain.ExecutionStatusFailed, domain.ExecutionStatusCancelled:
		return color.RedString(string(status))
	default:
		return color.YellowString(string(status))
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
