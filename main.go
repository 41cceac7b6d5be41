package main

import "github.com/PillarGame/TokenSales/cmd"

func main() {
	cmd.Execute()
}
