package main

import "github.com/dove-unipi/dove/cmd/dove/cmd"

func main() {
	cmd.Execute()
}
