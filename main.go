package main

import "github.com/hitoshitoshi/SoloBass/cmd"

func main() {
	cmd.Execute()
}
