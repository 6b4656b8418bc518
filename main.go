// Package main is the entry point for the chessmetrics CLI tool, which scores
// analysed chess games against engine choices and reports per-player metrics.
package main

import "github.com/pable/go-chess-metrics/cmd"

func main() {
	cmd.Execute()
}
