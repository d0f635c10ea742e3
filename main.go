package main

import "github.com/LegacyCodeHQ/unstar/cmd"

func main() {
	cmd.Execute()
}
