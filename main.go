package main

import "github.com/naka-gawa/bench-history/cmd"

func main() {
	cmd.Execute()
}
