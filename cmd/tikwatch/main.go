package main

import "github.com/vietddude/tikwatch/internal/cli"

func main() {
	cli.Execute()
}
