package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/guidescan/providers/models"
	"github.com/meysamhadeli/guidescan/utils"
)

type gitArgs struct {
	Path   string `json:"path"`
	Staged bool   `json:"staged"`
}

// gitChangesTool reports the branch, status and diff of the working
// directory so the model can see pending edits before making its own.
func gitChangesTool() models.Tool {
	return models.Tool{
		Name:        "get_git_changes",
		Description: "Show the git branch, status and uncommitted diff of a path inside the working directory.",
		Params: []models.Param{
			{Name: "path", Type: models.ParamString, Description: "Path to inspect (default: the working directory)"},
			{Name: "staged", Type: models.ParamBoolean, Description: "Show staged instead of unstaged changes"},
		},
		Handler: func(ctx context.Context, args json.RawMessage, workingDir string) (string, error) {
			var a gitArgs
			if err := decodeArgs(args, &a); err != nil {
				return "", err
			}
			target, err := ResolvePath(workingDir, a.Path)
			if err != nil {
				return "", err
			}
			root, err := filepath.Abs(workingDir)
			if err != nil {
				return "", err
			}
			rel, err := filepath.Rel(root, target)
			if err != nil {
				return "", err
			}

			git := utils.NewGitOperations(root)
			if err := git.CheckGitRepo(ctx); err != nil {
				return "", err
			}
			branch, err := git.GetBranchName(ctx)
			if err != nil {
				return "", err
			}
			dirty, err := git.HasUncommittedChanges(ctx)
			if err != nil {
				return "", err
			}
			if !dirty {
				return fmt.Sprintf("branch: %s\nstatus:\n(clean)", branch), nil
			}
			status, err := git.GetGitStatus(ctx, filepath.ToSlash(rel))
			if err != nil {
				return "", err
			}
			diff, err := git.GetGitDiff(ctx, a.Staged, filepath.ToSlash(rel))
			if err != nil {
				return "", err
			}

			var b strings.Builder
			fmt.Fprintf(&b, "branch: %s\n", branch)
			b.WriteString("status:\n")
			if status == "" {
				b.WriteString("(clean)\n")
			} else {
				b.WriteString(status)
			}
			if diff != "" {
				b.WriteString("diff:\n")
				b.WriteString(diff)
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	}
}
