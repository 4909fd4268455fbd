package main

import "github.com/devicelab-dev/uiscript/pkg/cli"

func main() {
	cli.Execute()
}
