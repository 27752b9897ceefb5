package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/meysamhadeli/guidescan/providers/models"
	"github.com/meysamhadeli/guidescan/utils"
)

type commandArgs struct {
	Command        string `json:"command"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

func commandTool(executor *utils.CommandExecutor) models.Tool {
	return models.Tool{
		Name:        "run_command_line_tool",
		Description: "Run a shell command in the working directory and return its combined output and exit code.",
		Params: []models.Param{
			{Name: "command", Type: models.ParamString, Description: "Command line to run", Required: true},
			{Name: "timeout_seconds", Type: models.ParamInteger, Description: "Timeout in seconds"},
		},
		Handler: func(ctx context.Context, args json.RawMessage, workingDir string) (string, error) {
			var a commandArgs
			if err := decodeArgs(args, &a); err != nil {
				return "", err
			}
			if err := requireArg("command", a.Command); err != nil {
				return "", err
			}

			output, exitCode, err := executor.ExecuteCommand(ctx, workingDir, a.Command, time.Duration(a.TimeoutSeconds)*time.Second)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("exit code: %d\n%s", exitCode, output), nil
		},
	}
}
