package main

import "tripdig/cmd"

func main() {
	cmd.Execute()
}
