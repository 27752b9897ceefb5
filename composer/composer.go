package composer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/guidescan/guidance/models"
	"github.com/meysamhadeli/guidescan/project/contracts"
	providerContracts "github.com/meysamhadeli/guidescan/providers/contracts"
	"github.com/meysamhadeli/guidescan/tools"
	"github.com/pterm/pterm"
)

const notDefined = "not defined"

// ConversationFactory hands out one fresh conversation per processed item.
// *providers.ProviderFactory implements it.
type ConversationFactory interface {
	New() providerContracts.IAIProvider
	IsThreadSafe() bool
}

// Options configures a Composer.
type Options struct {
	Factory      ConversationFactory
	Tools        *tools.Registry
	Instructions string
	// ScanRoot is the directory project paths are reported relative to.
	ScanRoot string
	// LogInputs writes every composed input below the project's work dir.
	LogInputs bool
	Logger    *pterm.Logger
}

// Composer assembles the request for one piece of guidance and runs the
// conversation for it.
type Composer struct {
	opts     Options
	inputLog *InputLog
	logger   *pterm.Logger
}

// NewComposer creates a Composer.
func NewComposer(opts Options) (*Composer, error) {
	if opts.Factory == nil {
		return nil, fmt.Errorf("composer needs a conversation factory")
	}
	logger := opts.Logger
	if logger == nil {
		logger = &pterm.DefaultLogger
	}
	c := &Composer{opts: opts, logger: logger}
	if opts.LogInputs {
		c.inputLog = NewInputLog(logger)
	}
	return c, nil
}

// IsThreadSafe delegates to the conversation factory.
func (c *Composer) IsThreadSafe() bool { return c.opts.Factory.IsThreadSafe() }

// Process sends instructions, the structure summary and the guidance prompt,
// in that order, and returns the final text of the conversation.
func (c *Composer) Process(ctx context.Context, layout contracts.IProjectLayout, g *models.Guidance) (string, error) {
	conversation := c.opts.Factory.New()

	inputs := []string{c.StructureSummary(layout), g.Prompt()}
	if c.opts.Instructions != "" {
		conversation.SetInstructions(c.opts.Instructions)
	}
	for _, input := range inputs {
		conversation.AddInput(input)
	}
	if c.opts.Tools != nil {
		for _, t := range c.opts.Tools.All() {
			conversation.RegisterTool(t.Name, t.Description, t.Handler, t.Params...)
		}
	}
	conversation.SetWorkingDirectory(layout.ProjectDir())

	if c.inputLog != nil {
		c.inputLog.Write(layout.ProjectDir(), g.File, c.opts.Instructions, inputs)
	}

	result, err := conversation.Run(ctx)
	if err != nil {
		return "", fmt.Errorf("conversation for %s failed: %w", g.RelativePath, err)
	}
	c.logger.Debug("conversation finished", c.logger.Args("file", g.RelativePath, "rounds", result.Rounds, "tokens", result.Usage.Total()))
	if !result.Found {
		c.logger.Warn("model returned no message", c.logger.Args("file", g.RelativePath))
		return "", nil
	}
	return result.Text, nil
}

// StructureSummary describes the project of layout. Conventional roots that
// do not exist on disk are left out.
func (c *Composer) StructureSummary(layout contracts.IProjectLayout) string {
	dir := layout.ProjectDir()

	name := layout.ProjectName()
	if name == "" {
		name = notDefined
	}
	id := layout.ProjectID()
	if id == "" {
		id = notDefined
	}

	var b strings.Builder
	b.WriteString("Project structure:\n")
	fmt.Fprintf(&b, "- name: %s\n", name)
	fmt.Fprintf(&b, "- id: %s\n", id)
	fmt.Fprintf(&b, "- path: %s\n", c.projectPath(dir))
	fmt.Fprintf(&b, "- layout: %s\n", layout.LayoutType())
	fmt.Fprintf(&b, "- sources: %s\n", existing(dir, layout.Sources()))
	fmt.Fprintf(&b, "- tests: %s\n", existing(dir, layout.Tests()))
	fmt.Fprintf(&b, "- documents: %s\n", existing(dir, layout.Documents()))
	fmt.Fprintf(&b, "- modules: %s", existing(dir, layout.Modules()))
	return b.String()
}

func (c *Composer) projectPath(dir string) string {
	if c.opts.ScanRoot == "" {
		return "."
	}
	rel, err := filepath.Rel(c.opts.ScanRoot, dir)
	if err != nil {
		return filepath.ToSlash(dir)
	}
	return filepath.ToSlash(rel)
}

// existing joins the entries of paths that exist below dir, or returns
// "none".
func existing(dir string, paths []string) string {
	var found []string
	for _, p := range paths {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(p))); err == nil {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return "none"
	}
	return strings.Join(found, ", ")
}
