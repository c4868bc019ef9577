package main

import "sitemap-terms/cmd"

func main() {
	cmd.Execute()
}
