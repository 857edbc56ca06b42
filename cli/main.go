/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/preesha73/chathub/cli/cmd"

func main() {
	cmd.Execute()
}
