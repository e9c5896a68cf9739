package history

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

const maxMessageWidth = 48

// PrintEntries renders entries as a table, in the order given.
func PrintEntries(w io.Writer, entries []HistoryEntry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No checks recorded yet.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "When", "Model", "Message", "Verdict"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(true)

	rows := lo.Map(entries, func(entry HistoryEntry, _ int) []string {
		return []string{
			strconv.FormatUint(uint64(entry.ID), 10),
			humanize.RelTime(entry.CreatedAt, now, "ago", "from now"),
			entry.Variant,
			summarizeMessage(entry.Message),
			verdict(entry),
		}
	})
	table.AppendBulk(rows)
	table.Render()
}

func summarizeMessage(message string) string {
	flattened := strings.Join(strings.Fields(message), " ")
	return runewidth.Truncate(flattened, maxMessageWidth, "...")
}

func verdict(entry HistoryEntry) string {
	if entry.Failed() {
		return entry.Error
	}
	if entry.Confidence.Valid {
		return fmt.Sprintf("%s (%.1f%%)", entry.Label, entry.Confidence.Float64)
	}
	return entry.Label
}
