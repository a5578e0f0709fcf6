package main

import (
	"log"

	"github.com/jessevdk/go-flags"

	"github.com/HMasataka/avgap/cmd/client/handler"
)

func main() {
	parser := flags.NewParser(nil, flags.Default)
	parser.AddCommand("analyze", "Run a gap analysis", "", handler.NewAnalyzeCommand())
	parser.AddCommand("health", "Check server health", "", handler.NewHealthCommand())

	_, err := parser.Parse()
	if err != nil {
		log.Fatal(err)
	}
}
