package main

import (
	"fmt"
	"io"
	"time"

	"github.com/lcsecurity/scamcheck/internal/history"
	"github.com/lcsecurity/scamcheck/internal/styles"
)

var historyFlags = []string{"history", "history-since", "history-delete", "history-reset"}

func historyRequested(setFlags map[string]bool) bool {
	for _, name := range historyFlags {
		if setFlags[name] {
			return true
		}
	}
	return false
}

// manageHistory runs the journal flag that was given. Reset wins over delete,
// delete over listing.
func manageHistory(w io.Writer, historyManager *history.HistoryManager, setFlags map[string]bool, defaultLimit int, now time.Time) error {
	switch {
	case setFlags["history-reset"]:
		if err := historyManager.ResetHistory(); err != nil {
			return err
		}
		fmt.Fprintln(w, "Check history cleared.")
		return nil

	case setFlags["history-delete"]:
		if err := historyManager.DeleteEntry(*historyDelete); err != nil {
			return err
		}
		fmt.Fprintf(w, "Deleted check %d.\n", *historyDelete)
		return nil

	case setFlags["history-since"]:
		if *historySince <= 0 {
			return fmt.Errorf("invalid -history-since %s: must be positive", *historySince)
		}
		entries, err := historyManager.GetEntriesSince(now.Add(-*historySince))
		if err != nil {
			return err
		}
		fmt.Fprintln(w, styles.HEADER(fmt.Sprintf("Checks in the last %s", *historySince)))
		history.PrintEntries(w, entries, now)
		return nil

	default:
		limit := *historyCount
		if limit <= 0 {
			limit = defaultLimit
		}
		entries, err := historyManager.GetRecentEntries(limit)
		if err != nil {
			return err
		}
		total, err := historyManager.GetTotalCount()
		if err != nil {
			return err
		}

		fmt.Fprintln(w, styles.HEADER("Recent checks"))
		history.PrintEntries(w, entries, now)
		if total > int64(len(entries)) {
			fmt.Fprintln(w, styles.HINT(fmt.Sprintf("(showing %d of %d)", len(entries), total)))
		}
		return nil
	}
}
