package main

import "github.com/curvemkt/curved/internal/cli"

func main() {
	cli.Execute()
}
