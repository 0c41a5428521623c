package main

import "github.com/KaramelBytes/basketlens/cmd"

func main() {
	cmd.Execute()
}
