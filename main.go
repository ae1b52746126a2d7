package main

import "github.com/mselser95/cex-arb/cmd"

func main() {
	cmd.Execute()
}
