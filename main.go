package main

import "github.com/guangl/dm-parser-sqllog/internal/cmd"

func main() {
	cmd.Execute()
}
