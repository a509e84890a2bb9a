package main

import "github.com/josephlewis42/hooksh/cmd"

func main() {
	cmd.Execute()
}
