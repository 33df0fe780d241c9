package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"shortcut-panel/app"
	"shortcut-panel/prompt"
	"shortcut-panel/session"
	"shortcut-panel/shortcut"
)

func newCommandCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "command",
		Aliases: []string{"cmd"},
		Short:   "Manage command shortcuts",
	}
	cmd.AddCommand(
		newCommandAddCommand(rt),
		newCommandListCommand(rt),
		newCommandDeleteCommand(rt),
		newCommandRunCommand(rt),
		newCommandImportCommand(rt),
	)
	return cmd
}

func commandEntries(c *app.Container) []entry {
	list := c.Commands.List()
	out := make([]entry, len(list))
	for i, sc := range list {
		out[i] = entry{id: sc.ID, title: sc.Title}
	}
	return out
}

func newCommandAddCommand(rt *runtime) *cobra.Command {
	var (
		title       string
		commands    []string
		description string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a command shortcut (interactive without --title)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.load(false)
			if err != nil {
				return err
			}
			if title == "" {
				draft, err := prompt.CommandFlow(rt.opts.Prompter)
				if errors.Is(err, prompt.ErrCancelled) {
					dimColor.Fprintln(cmd.OutOrStdout(), "Cancelled, nothing saved.")
					return nil
				}
				if err != nil {
					return err
				}
				title, commands, description = draft.Title, draft.Commands, draft.Description
			}
			if len(commands) == 0 {
				return fmt.Errorf("at least one --command is required")
			}
			sc, err := c.Commands.Add(title, commands, description)
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Added command shortcut %q ", sc.Title)
			idColor.Fprintln(cmd.OutOrStdout(), sc.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Shortcut title")
	cmd.Flags().StringArrayVarP(&commands, "command", "c", nil, "Command to run, repeat for a sequence")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Optional description")
	return cmd
}

func newCommandListCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List command shortcuts",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.load(false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			list := c.Commands.List()
			if len(list) == 0 {
				dimColor.Fprintln(out, "No command shortcuts yet.")
				return nil
			}
			for _, sc := range list {
				idColor.Fprintf(out, "%s  ", sc.ID)
				titleColor.Fprintln(out, sc.Title)
				for i, line := range sc.Commands {
					fmt.Fprintf(out, "    %d. %s\n", i+1, line)
				}
				if sc.Description != "" {
					dimColor.Fprintf(out, "    %s\n", sc.Description)
				}
			}
			return nil
		},
	}
}

func newCommandDeleteCommand(rt *runtime) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id|title>",
		Short: "Delete a command shortcut",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.load(false)
			if err != nil {
				return err
			}
			id, err := resolve("command shortcut", args[0], commandEntries(c))
			if err != nil {
				return err
			}
			sc, _ := c.Commands.Get(id)
			if !yes {
				ok, err := prompt.Confirm(rt.opts.Prompter, fmt.Sprintf("Delete command shortcut %q? [y/N]", sc.Title))
				if err != nil {
					return err
				}
				if !ok {
					dimColor.Fprintln(cmd.OutOrStdout(), "Kept.")
					return nil
				}
			}
			if _, err := c.Commands.Delete(id); err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Deleted command shortcut %q\n", sc.Title)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newCommandRunCommand(rt *runtime) *cobra.Command {
	var settle time.Duration
	cmd := &cobra.Command{
		Use:   "run <id|title>",
		Short: "Replay a command shortcut in a fresh shell and show its output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.load(false)
			if err != nil {
				return err
			}
			id, err := resolve("command shortcut", args[0], commandEntries(c))
			if err != nil {
				return err
			}
			sc, _ := c.Commands.Get(id)
			run, err := c.Commands.Execute(sc)
			if err != nil {
				return err
			}
			s, ok := run.Terminal().(*session.Session)
			if !ok {
				<-run.Done()
				return run.Err()
			}
			return followRun(cmd, s, run.Done(), run.Err, settle)
		},
	}
	cmd.Flags().DurationVar(&settle, "settle", 2*time.Second, "How long to keep showing output after the last command was sent")
	return cmd
}

// followRun copies the session output to the command's stdout until the
// run is over and the shell had time to settle. It stops early when the
// shell exits or another client takes the session over.
func followRun(cmd *cobra.Command, s *session.Session, done <-chan struct{}, runErr func() error, settle time.Duration) error {
	out := cmd.OutOrStdout()
	ch := make(chan []byte, 256)
	snap, kick := s.Attach(ch)
	defer s.ClearClient(ch)
	if len(snap) > 0 {
		_, _ = out.Write(snap)
	}

	var settleC <-chan time.Time
	for {
		select {
		case data := <-ch:
			_, _ = out.Write(data)
		case <-done:
			done = nil
			settleC = time.After(settle)
		case <-settleC:
			return runErr()
		case <-s.Done():
			return runErr()
		case <-kick:
			dimColor.Fprintln(cmd.ErrOrStderr(), "session attached elsewhere, no longer following output")
			if done != nil {
				select {
				case <-done:
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				}
			}
			return runErr()
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		}
	}
}

func newCommandImportCommand(rt *runtime) *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "import <script>",
		Short: "Create a command shortcut from a shell script, one command per statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.load(false)
			if err != nil {
				return err
			}
			commands, err := readScript(rt.opts.Fs, args[0])
			if err != nil {
				return err
			}
			if len(commands) == 0 {
				return fmt.Errorf("%s contains no commands", args[0])
			}
			if title == "" {
				title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			sc, err := c.Commands.Add(title, commands, description)
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Imported %d commands as %q ", len(commands), sc.Title)
			idColor.Fprintln(cmd.OutOrStdout(), sc.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Shortcut title (default: script name)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Optional description")
	return cmd
}

func readScript(fs afero.Fs, name string) ([]string, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return shortcut.SplitScript(f, name)
}
