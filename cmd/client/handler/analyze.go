package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/HMasataka/avgap/cmd/client/lib"
	"github.com/HMasataka/avgap/payload/analyze"
)

type AnalyzeCommand struct {
	ServerURL      string `long:"server" description:"Server URL" default:"http://localhost:8501"`
	RefuelPath     string `long:"refuel" description:"Refueling record TSV file, - for stdin" required:"true"`
	SchedulePath   string `long:"schedule" description:"Flight schedule TSV file, - for stdin" required:"true"`
	SlackMinutes   int    `long:"slack" description:"Search window slack in minutes"`
	JumpThreshold  int64  `long:"jump-threshold" description:"Ignore AV7 jumps larger than this"`
	IgnoreAV7s     string `long:"ignore-av7s" description:"AV7 numbers to exclude (comma separated)"`
	IgnoreFlights  string `long:"ignore-flights" description:"Flight numbers to exclude (comma separated)"`
	IgnorePrefixes string `long:"ignore-prefixes" description:"AV7 prefixes to exclude (comma separated)"`
}

func NewAnalyzeCommand() *AnalyzeCommand {
	return &AnalyzeCommand{}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func (cmd *AnalyzeCommand) Execute(args []string) error {
	refuel, err := readInput(cmd.RefuelPath)
	if err != nil {
		return fmt.Errorf("failed to read refuel data: %w", err)
	}

	schedule, err := readInput(cmd.SchedulePath)
	if err != nil {
		return fmt.Errorf("failed to read schedule data: %w", err)
	}

	c := client.NewClient(cmd.ServerURL)

	res, err := c.Analyze(analyze.Request{
		RefuelData:     string(refuel),
		ScheduleData:   string(schedule),
		SlackMinutes:   cmd.SlackMinutes,
		JumpThreshold:  cmd.JumpThreshold,
		IgnoreAV7s:     cmd.IgnoreAV7s,
		IgnoreFlights:  cmd.IgnoreFlights,
		IgnorePrefixes: cmd.IgnorePrefixes,
	})
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	resJSON, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling response: %w", err)
	}
	fmt.Printf("Response: %s\n", resJSON)

	return nil
}
