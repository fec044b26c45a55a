package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ward-resolver/internal/engine"
	import_pkg "github.com/ward-resolver/internal/import"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	failColor    = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
)

func success(w io.Writer, format string, args ...any) {
	successColor.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

func fail(w io.Writer, format string, args ...any) {
	failColor.Fprintf(w, "✗ %s\n", fmt.Sprintf(format, args...))
}

func warn(w io.Writer, format string, args ...any) {
	warnColor.Fprintf(w, "⚠ %s\n", fmt.Sprintf(format, args...))
}

func info(w io.Writer, format string, args ...any) {
	infoColor.Fprintf(w, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// resolveOutput is the --json shape of one resolution
type resolveOutput struct {
	Address string        `json:"address"`
	City    string        `json:"city"`
	Result  engine.Result `json:"result"`
}

func printResult(w io.Writer, address, city string, res engine.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resolveOutput{Address: address, City: city, Result: res})
	}

	if !res.Resolved() {
		fail(w, "%s: %s", address, res.Reason)
		return nil
	}

	ward := res.Ward
	switch res.Basis {
	case engine.BasisMohalla:
		success(w, "ward %d %s (mohalla %q, confidence %.2f)", ward.Number, ward.Name, ward.Mohalla, ward.Confidence)
	default:
		success(w, "ward %d %s (ward name, confidence %.2f)", ward.Number, ward.Name, ward.Confidence)
	}
	return nil
}

func printParseStats(w io.Writer, stats import_pkg.ParseStats) {
	info(w, "parsed %d rows: %d wards, %d mohallas", stats.Rows, stats.Wards, stats.Mohallas)
	if stats.OrphanMohallas > 0 {
		warn(w, "%d mohalla lines appeared before any ward and were dropped", stats.OrphanMohallas)
	}
	if stats.IgnoredLines > 0 {
		warn(w, "%d mohalla cell lines had no serial number and were ignored", stats.IgnoredLines)
	}
	if stats.RepeatedWardRow > 0 {
		warn(w, "%d ward rows repeated an earlier ward number and were merged", stats.RepeatedWardRow)
	}
}
