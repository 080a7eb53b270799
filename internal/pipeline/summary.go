package pipeline

import (
	"context"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/JezzDiego/ETL-GlobalRetail/internal/warehouse"
)

// TableCount is the row count of one warehouse table.
type TableCount struct {
	Table string
	Rows  int64
}

// Summary holds the warehouse row counts at the end of a run.
type Summary struct {
	Tables []TableCount
	Total  int64
}

// Counts returns the summary as a table name to row count mapping.
func (s Summary) Counts() map[string]int64 {
	m := make(map[string]int64, len(s.Tables))
	for _, t := range s.Tables {
		m[t.Table] = t.Rows
	}
	return m
}

// Counter counts the rows of a table.
type Counter interface {
	CountRows(ctx context.Context, table string) (int64, error)
}

// Summarize counts the rows of every warehouse table in reporting order.
func Summarize(ctx context.Context, c Counter) (Summary, error) {
	var s Summary
	for _, table := range warehouse.SummaryTables {
		n, err := c.CountRows(ctx, table)
		if err != nil {
			return s, fmt.Errorf("count %s: %w", table, err)
		}
		s.Tables = append(s.Tables, TableCount{Table: table, Rows: n})
		s.Total += n
	}
	return s, nil
}

// Print writes the summary as an aligned table.
func (s Summary) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tROWS\t")
	for _, t := range s.Tables {
		fmt.Fprintf(tw, "%s\t%d\t\n", t.Table, t.Rows)
	}
	fmt.Fprintf(tw, "%s\t%d\t\n", "total", s.Total)
	return tw.Flush()
}

// Status is the warehouse content together with the last recorded run.
type Status struct {
	Summary Summary

	// LastRun holds the run metadata, nil when no run was recorded.
	LastRun map[string]string
}

// runFields lists the run metadata keys in print order. Unknown keys
// follow in alphabetical order.
var runFields = []string{"run_id", "state", "finished_at", "total_rows", "version", "warehouse_schema_checksum"}

// Print writes the last run followed by the row counts.
func (s Status) Print(w io.Writer) error {
	if s.LastRun == nil {
		fmt.Fprintln(w, "No run recorded")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		keys := slices.Clone(runFields)
		var extra []string
		for k := range s.LastRun {
			if !slices.Contains(runFields, k) {
				extra = append(extra, k)
			}
		}
		slices.Sort(extra)
		for _, k := range append(keys, extra...) {
			if v, ok := s.LastRun[k]; ok {
				fmt.Fprintf(tw, "%s:\t%s\t\n", k, v)
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)
	return s.Summary.Print(w)
}
