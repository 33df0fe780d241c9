// Package cli is the shortcut-panel command line.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"shortcut-panel/app"
	"shortcut-panel/config"
	"shortcut-panel/logging"
	"shortcut-panel/prompt"
)

// Options holds CLI-level dependencies. Zero values mean the process
// defaults: stdio, the OS filesystem and a terminal prompter.
type Options struct {
	In       io.Reader
	Out      io.Writer
	Fs       afero.Fs
	Prompter prompt.Prompter
	// Container skips config loading; used by tests.
	Container *app.Container
}

var (
	okColor    = color.New(color.FgGreen)
	idColor    = color.New(color.FgYellow)
	dimColor   = color.New(color.FgHiBlack)
	titleColor = color.New(color.FgCyan, color.Bold)
	errColor   = color.New(color.FgRed)
)

type runtime struct {
	opts       Options
	configPath string
	verbose    bool
	container  *app.Container
}

// load reads the config and builds the service graph on first use.
func (rt *runtime) load(serving bool) (*app.Container, error) {
	if rt.container != nil {
		return rt.container, nil
	}
	cfg, err := config.NewLoader(rt.configPath).Load()
	if err != nil {
		return nil, err
	}

	level := logging.ParseLevel(cfg.Log.Level)
	if !serving && !rt.verbose && level < logging.WarnLevel {
		level = logging.WarnLevel
	}
	if rt.verbose {
		level = logging.DebugLevel
	}
	logging.Init(logging.Config{Level: level, Pretty: cfg.Log.Pretty || !serving})

	c, err := app.Build(cfg)
	if err != nil {
		return nil, err
	}
	rt.container = c
	return c, nil
}

func (rt *runtime) close() {
	if rt.container != nil && rt.opts.Container == nil {
		if err := rt.container.Close(); err != nil {
			logging.Warn().Err(err).Msg("shutdown")
		}
	}
}

// NewRootCmd wires the cobra root command. The returned func releases the
// container once the command finished.
func NewRootCmd(opts Options) (*cobra.Command, func()) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Prompter == nil {
		opts.Prompter = prompt.TeaPrompter{In: opts.In, Out: opts.Out}
	}
	rt := &runtime{opts: opts, container: opts.Container}

	root := &cobra.Command{
		Use:           "shortcut-panel",
		Short:         "Command and snippet shortcuts for your terminal and editor",
		Long:          "shortcut-panel stores named command sequences and code snippets, replays commands into terminals and inserts snippets into documents.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(opts.In)
	root.SetOut(opts.Out)
	root.PersistentFlags().StringVar(&rt.configPath, "config", "", "Config file (default ~/.shortcut-panel/config.yaml)")
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Verbose logging")

	root.AddCommand(
		newServeCommand(rt),
		newCommandCommand(rt),
		newSnippetCommand(rt),
		newCompleteCommand(rt),
		newTreeCommand(rt),
		newProjectCommand(rt),
	)
	return root, rt.close
}

// Execute runs the CLI with process defaults.
func Execute(ctx context.Context) int {
	root, done := NewRootCmd(Options{})
	defer done()
	if err := root.ExecuteContext(ctx); err != nil {
		errColor.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
