package main

import "plant-cold-alerts/internal/cli"

func main() {
	cli.Execute()
}
