package main

import "github.com/theirongolddev/costnotify/cmd"

func main() {
	cmd.Execute()
}
