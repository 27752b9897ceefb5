package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// DefaultCommandTimeout bounds a single command run by the command tool.
const DefaultCommandTimeout = 60 * time.Second

// maxCommandOutput caps the output handed back to the model.
const maxCommandOutput = 64 * 1024

// CommandExecutor runs shell commands requested by the AI provider.
type CommandExecutor struct {
	Timeout time.Duration
}

// NewCommandExecutor creates a new command executor instance
func NewCommandExecutor() *CommandExecutor {
	return &CommandExecutor{Timeout: DefaultCommandTimeout}
}

// ExecuteCommand validates and runs command in dir and returns its combined
// stdout/stderr together with the exit code. A non-zero exit code is not an
// error: the output is what the model needs to see.
func (ce *CommandExecutor) ExecuteCommand(ctx context.Context, dir string, command string, timeout time.Duration) (string, int, error) {
	if strings.TrimSpace(command) == "" {
		return "", -1, fmt.Errorf("empty command provided")
	}

	if err := ce.validateCommand(command); err != nil {
		return "", -1, fmt.Errorf("command validation failed: %w", err)
	}

	if timeout <= 0 {
		timeout = ce.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", command)
	} else {
		cmd = exec.CommandContext(ctx, "bash", "-c", command)
	}
	cmd.Dir = dir

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	out := output.String()
	if len(out) > maxCommandOutput {
		out = out[:maxCommandOutput] + fmt.Sprintf("\n... (truncated %d bytes)", len(out)-maxCommandOutput)
	}

	if ctx.Err() == context.DeadlineExceeded {
		return out, -1, fmt.Errorf("command timed out after %s", timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, exitErr.ExitCode(), nil
	}
	if err != nil {
		return out, -1, fmt.Errorf("command execution failed: %w", err)
	}

	return out, 0, nil
}

// validateCommand performs security checks on the proposed command
func (ce *CommandExecutor) validateCommand(command string) error {
	dangerousPatterns := []string{
		"rm -rf /",
		":(){ :|:& };:", // Fork bomb
		"> /dev/sda",    // Disk overwrite
		"wipefs",
		"fdisk",
		"mkfs",
		"dd if=",
		"shutdown",
		"reboot",
	}

	cmdLower := strings.ToLower(command)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(cmdLower, strings.ToLower(pattern)) {
			return fmt.Errorf("potentially dangerous command detected: %s", pattern)
		}
	}

	return nil
}
