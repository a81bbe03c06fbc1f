package main

import "MultiAI_Assistant/backend/go/cmd/assistant_cli/cmd"

func main() {
	cmd.Execute()
}
