package main

import (
	"snipt/cli"
	"snipt/platform/desktop"
)

func main() {
	cli.Execute(desktop.New)
}
