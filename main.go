package main

import "github.com/gaurav-prasanna/jirapipe/cmd"

func main() {
	cmd.Execute()
}
