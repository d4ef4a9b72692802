package main

import (
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"picky/cli"
)

func main() {
	cli.Execute()
}
