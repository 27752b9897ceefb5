package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/meysamhadeli/guidescan/providers/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, r *Registry, name string, args string, workingDir string) (string, error) {
	t.Helper()
	tool, ok := r.Get(name)
	require.True(t, ok, name)
	return tool.Handler(context.Background(), json.RawMessage(args), workingDir)
}

func defaultTools(t *testing.T) *Registry {
	t.Helper()
	r, err := NewDefaultRegistry(Options{})
	require.NoError(t, err)
	return r
}

func TestNewDefaultRegistry(t *testing.T) {
	r := defaultTools(t)
	assert.ElementsMatch(t, []string{
		"read_file_from_file_system",
		"write_file_to_file_system",
		"list_files_in_directory",
		"get_recursive_file_list",
		"run_command_line_tool",
		"get_web_content",
		"get_git_changes",
		"terminate_process",
	}, r.Names())

	readOnly, err := NewDefaultRegistry(Options{ReadOnly: true})
	require.NoError(t, err)
	_, ok := readOnly.Get("write_file_to_file_system")
	assert.False(t, ok)
	_, ok = readOnly.Get("run_command_line_tool")
	assert.False(t, ok)
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	tool := models.Tool{Name: "a", Handler: func(context.Context, json.RawMessage, string) (string, error) { return "", nil }}
	_, err := NewRegistry(tool, tool)
	assert.Error(t, err)

	_, err = NewRegistry(models.Tool{Name: "b"})
	assert.Error(t, err)
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()

	p, err := ResolvePath(dir, "a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a", "b.txt"), p)

	p, err = ResolvePath(dir, "")
	require.NoError(t, err)
	assert.Equal(t, dir, p)

	p, err = ResolvePath(dir, filepath.Join(dir, "x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "x"), p)

	_, err = ResolvePath(dir, "../outside.txt")
	assert.Error(t, err)
	_, err = ResolvePath(dir, filepath.Dir(dir))
	assert.Error(t, err)
	_, err = ResolvePath("", "a")
	assert.Error(t, err)
}

func TestResolvePath_SymlinkEscape(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("s"), 0644))
	if err := os.Symlink(outside, filepath.Join(dir, "link")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "real"), 0755))
	require.NoError(t, os.Symlink(filepath.Join(dir, "real"), filepath.Join(dir, "alias")))

	_, err := ResolvePath(dir, "link/secret.txt")
	assert.Error(t, err)
	_, err = ResolvePath(dir, "link/new/file.txt")
	assert.Error(t, err)

	p, err := ResolvePath(dir, "alias/new.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "alias", "new.txt"), p)

	r := defaultTools(t)
	_, err = call(t, r, "read_file_from_file_system", `{"path":"link/secret.txt"}`, dir)
	assert.Error(t, err)
}

func TestFileTools_WriteThenRead(t *testing.T) {
	r := defaultTools(t)
	dir := t.TempDir()

	out, err := call(t, r, "write_file_to_file_system", `{"path":"src/a.txt","content":"hello"}`, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "5 bytes")

	content, err := os.ReadFile(filepath.Join(dir, "src", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	out, err = call(t, r, "read_file_from_file_system", `{"path":"src/a.txt"}`, dir)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestFileTools_Errors(t *testing.T) {
	r := defaultTools(t)
	dir := t.TempDir()

	_, err := call(t, r, "read_file_from_file_system", `{}`, dir)
	assert.ErrorIs(t, err, ErrInvalidArguments)

	_, err = call(t, r, "read_file_from_file_system", `not json`, dir)
	assert.ErrorIs(t, err, ErrInvalidArguments)

	_, err = call(t, r, "read_file_from_file_system", `{"path":"missing.txt"}`, dir)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = call(t, r, "write_file_to_file_system", `{"path":"../escape.txt","content":"x"}`, dir)
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(filepath.Dir(dir), "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestListTools(t *testing.T) {
	r := defaultTools(t)
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "pkg"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules", "x"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "pkg", "a.go"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "node_modules", "x", "index.js"), []byte("x"), 0644))

	out, err := call(t, r, "list_files_in_directory", `{}`, dir)
	require.NoError(t, err)
	assert.Equal(t, "README.md\nnode_modules/\nsrc/", out)

	out, err = call(t, r, "get_recursive_file_list", `{"path":"."}`, dir)
	require.NoError(t, err)
	assert.Equal(t, "README.md\nsrc/pkg/a.go", out)
}

func TestCommandTool(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses bash")
	}
	r := defaultTools(t)
	dir := t.TempDir()

	out, err := call(t, r, "run_command_line_tool", `{"command":"echo hi && exit 3"}`, dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "exit code: 3\n"))
	assert.Contains(t, out, "hi")

	_, err = call(t, r, "run_command_line_tool", `{}`, dir)
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestWebContentTool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, `<html><head><style>p{}</style><script>var x=1;</script></head>
<body><h1>Title</h1><p>Some   text
here.</p></body></html>`)
		case "/plain":
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprint(w, "raw <b>text</b>")
		default:
			http.NotFound(w, req)
		}
	}))
	defer server.Close()

	r := defaultTools(t)

	out, err := call(t, r, "get_web_content", fmt.Sprintf(`{"url":%q}`, server.URL+"/page"), "")
	require.NoError(t, err)
	assert.Equal(t, "Title\nSome text here.", out)

	out, err = call(t, r, "get_web_content", fmt.Sprintf(`{"url":%q}`, server.URL+"/plain"), "")
	require.NoError(t, err)
	assert.Equal(t, "raw <b>text</b>", out)

	_, err = call(t, r, "get_web_content", fmt.Sprintf(`{"url":%q}`, server.URL+"/missing"), "")
	assert.Error(t, err)

	_, err = call(t, r, "get_web_content", `{"url":"file:///etc/passwd"}`, "")
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestTerminateTool(t *testing.T) {
	r := defaultTools(t)

	_, err := call(t, r, "terminate_process", `{"message":"unsafe change","cause":"missing tests"}`, "")
	require.Error(t, err)
	assert.True(t, IsTerminate(err))

	var term *TerminateError
	require.ErrorAs(t, err, &term)
	assert.Equal(t, "unsafe change", term.Message)
	assert.Equal(t, "missing tests", term.Cause)

	assert.False(t, IsTerminate(fmt.Errorf("plain")))
}

func TestToolSchema(t *testing.T) {
	tool, ok := defaultTools(t).Get("write_file_to_file_system")
	require.True(t, ok)

	schema := tool.Schema()
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{"path", "content"}, schema["required"])
	assert.Contains(t, schema["properties"], "content")
}

func TestGitChangesTool(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	r := defaultTools(t)
	dir := t.TempDir()

	_, err := call(t, r, "get_git_changes", `{}`, dir)
	assert.Error(t, err)

	gitCmd := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), "GIT_AUTHOR_NAME=t", "GIT_AUTHOR_EMAIL=t@example.com",
			"GIT_COMMITTER_NAME=t", "GIT_COMMITTER_EMAIL=t@example.com")
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	gitCmd("init", "-q")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("one\n"), 0644))
	gitCmd("add", "a.txt")
	gitCmd("commit", "-q", "-m", "init")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("two\n"), 0644))

	out, err := call(t, r, "get_git_changes", `{}`, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "branch: ")
	assert.Contains(t, out, " M a.txt")
	assert.Contains(t, out, "+two")

	out, err = call(t, r, "get_git_changes", `{"staged":true}`, dir)
	require.NoError(t, err)
	assert.NotContains(t, out, "+two")

	_, err = call(t, r, "get_git_changes", `{"path":"../x"}`, dir)
	assert.Error(t, err)
}
