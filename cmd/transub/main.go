package main

import "transub/internal/cli"

func main() {
	cli.Main()
}
