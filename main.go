package main

import (
	"marketscholar/internal/cli"
)

func main() {
	cli.Execute()
}
