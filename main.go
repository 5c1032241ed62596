package main

import "github.com/biogate/biogate/cmd"

func main() {
	cmd.Execute()
}
