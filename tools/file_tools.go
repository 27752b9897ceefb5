package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meysamhadeli/guidescan/providers/models"
	"github.com/meysamhadeli/guidescan/utils"
)

// maxListedFiles caps the recursive file list handed back to the model.
const maxListedFiles = 2000

// ResolvePath resolves p against workingDir. Absolute paths are accepted
// when they stay inside workingDir; anything escaping it is rejected.
func ResolvePath(workingDir string, p string) (string, error) {
	if workingDir == "" {
		return "", fmt.Errorf("no working directory set")
	}
	root, err := filepath.Abs(workingDir)
	if err != nil {
		return "", err
	}

	target := filepath.FromSlash(p)
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	target = filepath.Clean(target)

	if !inside(root, target) {
		return "", fmt.Errorf("path %s is outside the working directory", p)
	}

	// Symlinks below the working directory must not lead out of it.
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	realTarget, err := evalExisting(target)
	if err != nil {
		return "", err
	}
	if !inside(realRoot, realTarget) {
		return "", fmt.Errorf("path %s resolves outside the working directory", p)
	}
	return target, nil
}

func inside(root string, target string) bool {
	rel, err := filepath.Rel(root, target)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// evalExisting resolves symlinks in the longest existing prefix of path and
// appends the part that does not exist yet.
func evalExisting(path string) (string, error) {
	var missing []string
	current := path
	for {
		if _, err := os.Lstat(current); err == nil {
			break
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to stat %s: %w", current, err)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return path, nil
		}
		missing = append([]string{filepath.Base(current)}, missing...)
		current = parent
	}

	resolved, err := filepath.EvalSymlinks(current)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", current, err)
	}
	return filepath.Join(append([]string{resolved}, missing...)...), nil
}

type pathArgs struct {
	Path string `json:"path"`
}

type writeArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func readFileTool() models.Tool {
	return models.Tool{
		Name:        "read_file_from_file_system",
		Description: "Read a text file. The path is relative to the working directory.",
		Params: []models.Param{
			{Name: "path", Type: models.ParamString, Description: "File path", Required: true},
		},
		Handler: func(ctx context.Context, args json.RawMessage, workingDir string) (string, error) {
			var a pathArgs
			if err := decodeArgs(args, &a); err != nil {
				return "", err
			}
			if err := requireArg("path", a.Path); err != nil {
				return "", err
			}
			path, err := ResolvePath(workingDir, a.Path)
			if err != nil {
				return "", err
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return "", fmt.Errorf("failed to read file: %w", err)
			}
			return string(content), nil
		},
	}
}

func writeFileTool() models.Tool {
	return models.Tool{
		Name:        "write_file_to_file_system",
		Description: "Create or overwrite a text file with the given content. Missing parent directories are created.",
		Params: []models.Param{
			{Name: "path", Type: models.ParamString, Description: "File path", Required: true},
			{Name: "content", Type: models.ParamString, Description: "Complete new file content", Required: true},
		},
		Handler: func(ctx context.Context, args json.RawMessage, workingDir string) (string, error) {
			var a writeArgs
			if err := decodeArgs(args, &a); err != nil {
				return "", err
			}
			if err := requireArg("path", a.Path); err != nil {
				return "", err
			}
			path, err := ResolvePath(workingDir, a.Path)
			if err != nil {
				return "", err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return "", fmt.Errorf("failed to create directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(a.Content), 0644); err != nil {
				return "", fmt.Errorf("failed to write file: %w", err)
			}
			return fmt.Sprintf("wrote %d bytes to %s", len(a.Content), a.Path), nil
		},
	}
}

func listFilesTool() models.Tool {
	return models.Tool{
		Name:        "list_files_in_directory",
		Description: "List the entries of one directory. Directories end with '/'.",
		Params: []models.Param{
			{Name: "path", Type: models.ParamString, Description: "Directory path, defaults to the working directory"},
		},
		Handler: func(ctx context.Context, args json.RawMessage, workingDir string) (string, error) {
			var a pathArgs
			if err := decodeArgs(args, &a); err != nil {
				return "", err
			}
			dir, err := ResolvePath(workingDir, a.Path)
			if err != nil {
				return "", err
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				return "", fmt.Errorf("failed to list directory: %w", err)
			}
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				name := e.Name()
				if e.IsDir() {
					name += "/"
				}
				names = append(names, name)
			}
			return strings.Join(names, "\n"), nil
		},
	}
}

func recursiveFileListTool() models.Tool {
	return models.Tool{
		Name:        "get_recursive_file_list",
		Description: "List every file below a directory, relative to it, skipping version control, dependency and build directories.",
		Params: []models.Param{
			{Name: "path", Type: models.ParamString, Description: "Directory path, defaults to the working directory"},
		},
		Handler: func(ctx context.Context, args json.RawMessage, workingDir string) (string, error) {
			var a pathArgs
			if err := decodeArgs(args, &a); err != nil {
				return "", err
			}
			dir, err := ResolvePath(workingDir, a.Path)
			if err != nil {
				return "", err
			}

			var files []string
			truncated := false
			err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				if d.IsDir() {
					if path != dir && utils.IsExcludedName(d.Name()) {
						return filepath.SkipDir
					}
					return nil
				}
				if len(files) >= maxListedFiles {
					truncated = true
					return filepath.SkipAll
				}
				rel, _ := filepath.Rel(dir, path)
				files = append(files, filepath.ToSlash(rel))
				return nil
			})
			if err != nil {
				return "", fmt.Errorf("failed to list files: %w", err)
			}

			sort.Strings(files)
			out := strings.Join(files, "\n")
			if truncated {
				out += fmt.Sprintf("\n... (truncated at %d files)", maxListedFiles)
			}
			return out, nil
		},
	}
}
