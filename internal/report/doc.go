// Package report renders run summaries for the terminal and exports
// spreadsheet workbooks for study coordinators.
package report
