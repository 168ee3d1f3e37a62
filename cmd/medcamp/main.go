package main

import "medcamp-backend/cmd"

func main() {
	cmd.Run()
}
