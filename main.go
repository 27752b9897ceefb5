package main

import "github.com/meysamhadeli/guidescan/cmd"

func main() {
	cmd.Execute()
}
