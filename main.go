package main

import "github.com/zjrosen/padkit/cmd"

func main() {
	cmd.Execute()
}
