package main

import "github.com/KaramelBytes/sheetpulse/cmd"

func main() {
	cmd.Execute()
}
