package main

import "prhealth/internal/cli"

func main() {
	cli.Execute()
}
