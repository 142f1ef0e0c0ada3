package main

import "github.com/chapool/subflow-agent/cmd"

func main() {
	cmd.Execute()
}
