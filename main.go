package main

import "github.com/iksnae/databricks-chatbot/cmd"

func main() {
	cmd.Execute()
}
