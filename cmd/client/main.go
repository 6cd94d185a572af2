package main

import "github.com/pvidal/battlegrid/internal/cli"

func main() {
	cli.Execute()
}
