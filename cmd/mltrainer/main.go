package main

import "github.com/emiliopalmerini/mltrainer/internal/cli"

func main() {
	cli.Execute()
}
