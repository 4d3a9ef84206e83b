package main

import "sqldeck/cmd"

func main() {
	cmd.Execute()
}
