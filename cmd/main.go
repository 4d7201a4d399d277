package main

import "ghlicense/cli"

func main() {
	cli.Execute()
}
