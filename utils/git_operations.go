package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// maxDiffLines bounds the diff returned to a model.
const maxDiffLines = 400

// GitOperations runs read-only git queries in a working directory.
type GitOperations struct {
	workingDir string
}

// NewGitOperations creates a new GitOperations instance
func NewGitOperations(workingDir string) *GitOperations {
	return &GitOperations{workingDir: workingDir}
}

// CheckGitRepo checks if the working directory is inside a git repository
func (g *GitOperations) CheckGitRepo(ctx context.Context) error {
	if _, err := g.run(ctx, "rev-parse", "--git-dir"); err != nil {
		return fmt.Errorf("not a git repository: %s", g.workingDir)
	}
	return nil
}

// GetBranchName returns the current branch name
func (g *GitOperations) GetBranchName(ctx context.Context) (string, error) {
	output, err := g.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get branch name: %w", err)
	}
	return strings.TrimSpace(output), nil
}

// GetGitStatus returns the porcelain status of path ("" means everything).
func (g *GitOperations) GetGitStatus(ctx context.Context, path string) (string, error) {
	output, err := g.run(ctx, withPath([]string{"status", "--porcelain"}, path)...)
	if err != nil {
		return "", fmt.Errorf("failed to get git status: %w", err)
	}
	return output, nil
}

// GetGitDiff returns the uncommitted diff of path, staged or unstaged,
// truncated to maxDiffLines lines.
func (g *GitOperations) GetGitDiff(ctx context.Context, staged bool, path string) (string, error) {
	args := []string{"diff", "--unified=3"}
	if staged {
		args = append(args, "--cached")
	}
	output, err := g.run(ctx, withPath(args, path)...)
	if err != nil {
		return "", fmt.Errorf("failed to get git diff: %w", err)
	}

	lines := strings.Split(output, "\n")
	if len(lines) > maxDiffLines {
		output = strings.Join(lines[:maxDiffLines], "\n") + fmt.Sprintf("\n... (truncated %d more lines)\n", len(lines)-maxDiffLines)
	}
	return output, nil
}

// HasUncommittedChanges checks if there are uncommitted changes
func (g *GitOperations) HasUncommittedChanges(ctx context.Context) (bool, error) {
	status, err := g.GetGitStatus(ctx, "")
	if err != nil {
		return false, err
	}
	return status != "", nil
}

func (g *GitOperations) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.workingDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return "", err
	}
	return string(output), nil
}

func withPath(args []string, path string) []string {
	if path == "" || path == "." {
		return args
	}
	return append(args, "--", path)
}
