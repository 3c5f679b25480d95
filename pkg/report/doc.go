// Package report exports experiment records for inspection outside the CLI.
//
// # Overview
//
// Two sinks are provided:
//
//   - [WriteXLSX]: a workbook with a summary sheet, one trajectory sheet per
//     record, and the pin scores of the hold variant
//   - [RenderHTML]: a self-contained page of charts comparing scores, the
//     pin grid, the cut trajectories and, optionally, the final sheet
//
// Both accept the records of one experiment as loaded from an
// [experiment.Store], in any order and with either variant missing.
//
// Basic usage:
//
//	recs := []*experiment.Record{noHold, hold}
//	if err := report.WriteXLSX(f, recs); err != nil {
//	    return err
//	}
//	if err := report.RenderHTML(page, recs, report.WithSnapshot(snap)); err != nil {
//	    return err
//	}
package report
