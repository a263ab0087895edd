package main

import "github.com/KaramelBytes/regress-cli/cmd"

func main() {
	cmd.Execute()
}
