package main

import "imagedupe/cmd"

func main() {
	cmd.Execute()
}
