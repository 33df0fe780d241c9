package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shortcut-panel/project"
	"shortcut-panel/tree"
)

func newCompleteCommand(rt *runtime) *cobra.Command {
	var pos int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "complete <file>",
		Short: "Show the snippet completions offered for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.load(false)
			if err != nil {
				return err
			}
			items := c.Completion.Complete(args[0], pos)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			if len(items) == 0 {
				dimColor.Fprintf(out, "No snippets apply to %s\n", args[0])
				return nil
			}
			for _, it := range items {
				titleColor.Fprint(out, it.Label)
				dimColor.Fprintf(out, "  %s\n", it.Documentation)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&pos, "pos", 0, "Cursor offset")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print completion items as JSON")
	return cmd
}

func newTreeCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Show both shortcut collections as the side panel does",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.load(false)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tree.Render(c.Tree.Roots()))
			return nil
		},
	}
}

func newProjectCommand(rt *runtime) *cobra.Command {
	var scan bool
	cmd := &cobra.Command{
		Use:   "project [dir]",
		Short: "Detect Dart and Flutter projects",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			} else if wd, err := os.Getwd(); err == nil {
				dir = wd
			}
			out := cmd.OutOrStdout()

			if !scan {
				info, err := project.Detect(rt.opts.Fs, dir)
				if err != nil {
					return fmt.Errorf("%s: %w", dir, err)
				}
				printProject(cmd, info)
				return nil
			}

			found, err := project.Scan(rt.opts.Fs, dir)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				dimColor.Fprintf(out, "No Dart projects below %s\n", dir)
				return nil
			}
			for _, info := range found {
				printProject(cmd, info)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&scan, "scan", false, "Search subdirectories for pubspec.yaml")
	return cmd
}

func printProject(cmd *cobra.Command, info project.Info) {
	out := cmd.OutOrStdout()
	titleColor.Fprint(out, info.Name)
	fmt.Fprintf(out, "  %s  ", info.Kind())
	dimColor.Fprintln(out, info.Dir)
}
