package main

import "github.com/europeana/metis-tools/internal/cli"

func main() {
	cli.Execute()
}
