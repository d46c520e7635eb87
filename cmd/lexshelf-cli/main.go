package main

import "lexshelf/cmd/lexshelf-cli/cmd"

func main() {
	cmd.Execute()
}
