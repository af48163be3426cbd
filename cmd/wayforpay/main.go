package main

import "github.com/kevin07696/wayforpay/internal/cli"

func main() {
	cli.Execute()
}
