/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/campdir/apiserver/cmd"

func main() {
	cmd.Execute()
}
