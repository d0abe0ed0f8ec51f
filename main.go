// Package main is the entry point for reel.
package main

import "github.com/aagedal/reel/cmd"

func main() {
	cmd.Execute()
}
