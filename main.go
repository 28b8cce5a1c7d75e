package main

import "github.com/gitkan/gitkan/cmd"

func main() {
	cmd.Execute()
}
