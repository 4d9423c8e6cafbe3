package main

import "github.com/bridgesphysio/bridges_backend/cmd"

func main() {
	cmd.Execute()
}
