package main

import "github.com/commandos-health/commandos/cmd"

func main() {
	cmd.Execute()
}
