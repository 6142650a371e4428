// ABOUTME: Entry point for the leadbook CLI, console and MCP server
// ABOUTME: All routing lives in the cobra command tree under cli/
package main

import "github.com/harperreed/leadbook/cli"

const version = "0.2.0"

func main() {
	cli.Execute(version)
}
