package main

import "github.com/theirongolddev/salescast/cmd"

func main() {
	cmd.Execute()
}
