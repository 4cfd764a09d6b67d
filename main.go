package main

import "github.com/agentic-research/respack/cmd"

func main() {
	cmd.Execute()
}
