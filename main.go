package main

import "github.com/mj1618/winsync/cmd"

func main() {
	cmd.Execute()
}
