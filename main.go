package main

import "github.com/jake-scott/gira-x1/cmd"

func main() {
	cmd.Execute()
}
