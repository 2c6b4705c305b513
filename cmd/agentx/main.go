package main

import "github.com/Ocada-ai-biz/agentx/internal/ui/cli"

func main() {
	cli.Execute()
}
