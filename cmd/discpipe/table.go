package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
)

// newTable builds a go-pretty table writer styled for the CLI's output
// stream: a box-drawing style for an interactive terminal, and a plain
// style (no colors, simple ASCII) when output is piped or redirected so
// scripts parsing `discpipe queue list` output don't have to strip
// ANSI escapes.
func newTable(out io.Writer, headers table.Row) table.Writer {
	writer := table.NewWriter()
	writer.SetOutputMirror(out)
	writer.AppendHeader(headers)

	if file, ok := out.(*os.File); ok && isatty.IsTerminal(file.Fd()) {
		writer.SetStyle(table.StyleLight)
	} else {
		writer.SetStyle(table.StyleDefault)
		writer.Style().Options.DrawBorder = false
		writer.Style().Options.SeparateColumns = true
		writer.Style().Options.SeparateHeader = true
	}
	return writer
}

func printEmpty(out io.Writer, noun string) {
	fmt.Fprintf(out, "No %s found.\n", noun)
}
