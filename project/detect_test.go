package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDetect_PlainDirectory(t *testing.T) {
	dir := t.TempDir()

	layout, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, TypeDirectory, layout.LayoutType())
	assert.Empty(t, layout.Modules())
	assert.Empty(t, layout.ProjectName())
	assert.Equal(t, filepath.Base(dir), layout.ProjectID())
}

func TestDetect_GoWorkspace(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module example.com/tools\n\ngo 1.22\n")
	writeFile(t, filepath.Join(dir, "go.work"), "go 1.22\n\nuse (\n\t.\n\t./api\n\t./cli\n)\n")

	layout, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, TypeGo, layout.LayoutType())
	assert.Equal(t, "example.com/tools", layout.ProjectID())
	assert.Equal(t, "tools", layout.ProjectName())
	assert.Equal(t, []string{"api", "cli"}, layout.Modules())
}

func TestDetect_Maven(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pom.xml"), `<project>
  <parent><groupId>org.example</groupId></parent>
  <artifactId>shop</artifactId>
  <name>Shop</name>
  <modules>
    <module>core</module>
    <module>web</module>
  </modules>
</project>`)

	layout, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, TypeMaven, layout.LayoutType())
	assert.Equal(t, "org.example:shop", layout.ProjectID())
	assert.Equal(t, "Shop", layout.ProjectName())
	assert.Equal(t, []string{"core", "web"}, layout.Modules())
	assert.Contains(t, layout.Sources(), "src/main/java")
}

func TestDetect_MavenRejectsEscapingModule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pom.xml"), `<project><artifactId>x</artifactId><modules><module>../other</module></modules></project>`)

	_, err := Detect(dir)
	require.Error(t, err)
}

func TestDetect_NpmWorkspaces(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{"name":"mono","workspaces":["packages/*"]}`)
	writeFile(t, filepath.Join(dir, "packages", "ui", "package.json"), `{"name":"ui"}`)
	writeFile(t, filepath.Join(dir, "packages", "api", "package.json"), `{"name":"api"}`)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "packages", "empty"), 0755))

	layout, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, TypeNpm, layout.LayoutType())
	assert.Equal(t, []string{"packages/api", "packages/ui"}, layout.Modules())
}

func TestDetect_NpmWorkspacesObjectForm(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{"name":"mono","workspaces":{"packages":["app"]}}`)
	writeFile(t, filepath.Join(dir, "app", "package.json"), `{"name":"app"}`)

	layout, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, layout.Modules())
}

func TestDetect_Python(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pyproject.toml"), "[project]\nname = \"data-tools\"\n")

	layout, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, TypePython, layout.LayoutType())
	assert.Equal(t, "data-tools", layout.ProjectName())
	assert.Contains(t, layout.Sources(), "data_tools")
}

func TestDetect_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	writeFile(t, file, "x")

	_, err := Detect(file)
	require.Error(t, err)
}
