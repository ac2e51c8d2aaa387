package main

import "github.com/KaramelBytes/airwater-cli/cmd"

func main() {
	cmd.Execute()
}
