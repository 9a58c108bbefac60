package main

import "github.com/mselser95/polymarket-paper/cmd"

func main() {
	cmd.Execute()
}
