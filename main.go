// main package for the labtest command-line tool
// Package main is the entry point for the labtest CLI.
package main

import "labtest.dev/pkg/labtest/cmd"

func main() {
	cmd.Execute()
}
