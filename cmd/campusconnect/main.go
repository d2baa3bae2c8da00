package main

import "github.com/vietddude/campusconnect/internal/cli"

func main() {
	cli.Execute()
}
