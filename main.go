package main

import "github.com/gaurav-prasanna/sitetrans/cmd"

func main() {
	cmd.Execute()
}
