package main

import "github.com/mcoot/flippo/internal/cli"

func main() {
	cli.Execute()
}
