package main

import "expertmeet/cmd"

func main() {
	cmd.Execute()
}
