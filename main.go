package main

import "github.com/medlink/teleconsult/cmd"

func main() {
	cmd.Execute()
}
