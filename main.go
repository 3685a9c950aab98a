// Package main is the entry point of the SAP Business One query assistant.
package main

import "github.com/ekaya-inc/b1-query-assistant/cmd"

func main() {
	cmd.Execute()
}
