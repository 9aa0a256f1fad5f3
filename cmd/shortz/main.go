package main

import "github.com/mardev60/shortZ-tube/internal/cli"

func main() {
	cli.Main()
}
