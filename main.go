// Package main is the entry point for the nextauth CLI.
package main

import (
	"nextauth/cli/cmd"
)

func main() {
	cmd.Execute()
}
