package main

import "verdura-labs/market-scraper/cmd"

func main() {
	cmd.Execute()
}
