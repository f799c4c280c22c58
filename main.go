package main

import "github.com/user/phishguard/cmd"

func main() {
	cmd.Execute()
}
