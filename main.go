package main

import "github.com/vibast-solutions/ms-go-segfault/cmd"

func main() {
	cmd.Execute()
}
