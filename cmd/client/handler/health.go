package handler

import (
	"fmt"

	"github.com/HMasataka/avgap/cmd/client/lib"
)

type HealthCommand struct {
	ServerURL string `long:"server" description:"Server URL" default:"http://localhost:8501"`
}

func NewHealthCommand() *HealthCommand {
	return &HealthCommand{}
}

func (cmd *HealthCommand) Execute(args []string) error {
	c := client.NewClient(cmd.ServerURL)

	res, err := c.Health()
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	fmt.Printf("Status: %s\n", res.Status)

	return nil
}
