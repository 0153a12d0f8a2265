package main

import "github.com/meliao/ha-hps/cmd"

func main() {
	cmd.Execute()
}
