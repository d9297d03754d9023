package main

import "github.com/iksnae/promptlib/cmd"

func main() {
	cmd.Execute()
}
