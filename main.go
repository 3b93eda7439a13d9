package main

import "github.com/papapumpkin/unlockmap/cmd"

func main() {
	cmd.Execute()
}
