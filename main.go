package main

import "github.com/oxbot/oxbot/cmd"

func main() {
	cmd.Execute()
}
