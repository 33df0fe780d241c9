package cli

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"shortcut-panel/app"
	"shortcut-panel/editor"
	"shortcut-panel/prompt"
	"shortcut-panel/shortcut"
)

func newSnippetCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snippet",
		Short: "Manage snippet shortcuts",
	}
	cmd.AddCommand(
		newSnippetAddCommand(rt),
		newSnippetListCommand(rt),
		newSnippetDeleteCommand(rt),
		newSnippetApplyCommand(rt),
		newSnippetImportCommand(rt),
	)
	return cmd
}

func snippetEntries(c *app.Container) []entry {
	list := c.Snippets.List()
	out := make([]entry, len(list))
	for i, sn := range list {
		out[i] = entry{id: sn.ID, title: sn.Title}
	}
	return out
}

func newSnippetAddCommand(rt *runtime) *cobra.Command {
	var title, fileTypes, code, description string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a snippet shortcut (interactive without --title)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.load(false)
			if err != nil {
				return err
			}
			if title == "" {
				draft, err := prompt.SnippetFlow(rt.opts.Prompter)
				if errors.Is(err, prompt.ErrCancelled) {
					dimColor.Fprintln(cmd.OutOrStdout(), "Cancelled, nothing saved.")
					return nil
				}
				if err != nil {
					return err
				}
				title, fileTypes, code, description = draft.Title, draft.FileTypes, draft.Code, draft.Description
			}
			sn, err := c.Snippets.Add(title, fileTypes, code, description)
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Added snippet shortcut %q ", sn.Title)
			idColor.Fprintln(cmd.OutOrStdout(), sn.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Snippet title")
	cmd.Flags().StringVarP(&fileTypes, "file-types", "f", prompt.DefaultFileTypes, "Comma separated extensions, * for all files")
	cmd.Flags().StringVarP(&code, "code", "c", "", "Snippet text")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Optional description")
	return cmd
}

func newSnippetListCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snippet shortcuts",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.load(false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			list := c.Snippets.List()
			if len(list) == 0 {
				dimColor.Fprintln(out, "No snippet shortcuts yet.")
				return nil
			}
			for _, sn := range list {
				idColor.Fprintf(out, "%s  ", sn.ID)
				titleColor.Fprint(out, sn.Title)
				dimColor.Fprintf(out, "  [%s]\n", sn.FileTypes)
				if sn.Description != "" {
					dimColor.Fprintf(out, "    %s\n", sn.Description)
				}
			}
			return nil
		},
	}
}

func newSnippetDeleteCommand(rt *runtime) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id|title>",
		Short: "Delete a snippet shortcut",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.load(false)
			if err != nil {
				return err
			}
			id, err := resolve("snippet shortcut", args[0], snippetEntries(c))
			if err != nil {
				return err
			}
			sn, _ := c.Snippets.Get(id)
			if !yes {
				ok, err := prompt.Confirm(rt.opts.Prompter, fmt.Sprintf("Delete snippet shortcut %q? [y/N]", sn.Title))
				if err != nil {
					return err
				}
				if !ok {
					dimColor.Fprintln(cmd.OutOrStdout(), "Kept.")
					return nil
				}
			}
			if _, err := c.Snippets.Delete(id); err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Deleted snippet shortcut %q\n", sn.Title)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newSnippetApplyCommand(rt *runtime) *cobra.Command {
	var (
		offset int
		end    int
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "apply <id|title> <file>",
		Short: "Insert a snippet into a file at an offset, replacing the range up to --end",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.load(false)
			if err != nil {
				return err
			}
			id, err := resolve("snippet shortcut", args[0], snippetEntries(c))
			if err != nil {
				return err
			}
			sn, _ := c.Snippets.Get(id)

			file := args[1]
			data, err := afero.ReadFile(rt.opts.Fs, file)
			if err != nil {
				return err
			}
			before := string(data)
			if offset < 0 {
				offset = utf8.RuneCountInString(before)
			}
			sel := editor.Cursor(offset)
			if end >= 0 {
				sel = editor.Selection{Anchor: offset, Active: end}
			}

			buf := editor.NewBuffer(&editor.Document{FileName: file, Text: before, Selection: sel})
			if err := c.Snippets.Execute(sn, buf); err != nil {
				if errors.Is(err, shortcut.ErrPatternMismatch) {
					return fmt.Errorf("%q only applies to %s files", sn.Title, sn.FileTypes)
				}
				return err
			}
			doc, _ := buf.Snapshot()

			out := cmd.OutOrStdout()
			patch, add, del := editor.Diff(file, before, doc.Text)
			fmt.Fprint(out, patch)
			if dryRun {
				dimColor.Fprintf(out, "dry run: %d added, %d removed, %s not written\n", add, del, file)
				return nil
			}
			if err := afero.WriteFile(rt.opts.Fs, file, []byte(doc.Text), 0o644); err != nil {
				return err
			}
			okColor.Fprintf(out, "Inserted %q into %s\n", sn.Title, file)
			return nil
		},
	}
	cmd.Flags().IntVar(&offset, "offset", -1, "Character offset to insert at (default: end of file)")
	cmd.Flags().IntVar(&end, "end", -1, "End of the range to replace (default: insert only)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the diff without writing the file")
	return cmd
}

func newSnippetImportCommand(rt *runtime) *cobra.Command {
	var fileTypes string
	cmd := &cobra.Command{
		Use:   "import <file.code-snippets>",
		Short: "Import snippets from an editor snippet file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.load(false)
			if err != nil {
				return err
			}
			data, err := afero.ReadFile(rt.opts.Fs, args[0])
			if err != nil {
				return err
			}
			snippets, err := shortcut.ParseCodeSnippets(data, fileTypes)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, sn := range snippets {
				added, err := c.Snippets.Add(sn.Title, sn.FileTypes, sn.SnippetCode, sn.Description)
				if err != nil {
					return fmt.Errorf("import %q: %w", sn.Title, err)
				}
				fmt.Fprintf(out, "  %s  %s [%s]\n", idColor.Sprint(added.ID), added.Title, added.FileTypes)
			}
			okColor.Fprintf(out, "Imported %d snippets\n", len(snippets))
			return nil
		},
	}
	cmd.Flags().StringVarP(&fileTypes, "file-types", "f", shortcut.Wildcard, "File types for snippets without a known scope")
	return cmd
}
