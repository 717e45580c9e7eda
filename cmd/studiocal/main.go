package main

import "github.com/avenwick/studiocal/cmd/studiocal/cmd"

func main() {
	cmd.Execute()
}
