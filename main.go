package main

import "rental-directory/cmd"

func main() {
	cmd.Execute()
}
