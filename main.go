package main

import "github.com/vibast-solutions/ms-go-book-payments/cmd"

func main() {
	cmd.Execute()
}
