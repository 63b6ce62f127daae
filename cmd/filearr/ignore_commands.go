package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"filearr/internal/api"
)

func newIgnoreCommand(ctx *commandContext) *cobra.Command {
	ignoreCmd := &cobra.Command{
		Use:   "ignore",
		Short: "Manage ignore patterns and ignored files",
	}
	ignoreCmd.AddCommand(newIgnoreListCommand(ctx))
	ignoreCmd.AddCommand(newIgnoreAddCommand(ctx))
	ignoreCmd.AddCommand(newIgnoreRemoveCommand(ctx))
	ignoreCmd.AddCommand(newIgnoreTestCommand(ctx))
	return ignoreCmd
}

func newIgnoreListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List ignore patterns and ignored files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				patterns, err := client.IgnorePatterns(cmd.Context())
				if err != nil {
					return err
				}
				files, err := client.IgnoredFiles(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.wantJSON() {
					return writeJSON(cmd, struct {
						api.IgnorePatternsResponse
						api.IgnoredFilesResponse
					}{patterns, files})
				}
				out := cmd.OutOrStdout()
				color := shouldColorize(out)
				if len(patterns.Patterns) == 0 {
					fmt.Fprintln(out, "No ignore patterns")
				} else {
					rows := make([][]string, 0, len(patterns.Patterns))
					for _, p := range patterns.Patterns {
						rows = append(rows, []string{p})
					}
					fmt.Fprintln(out, renderTable([]string{"Pattern"}, rows, nil, color))
				}
				if len(files.Files) == 0 {
					fmt.Fprintln(out, "No ignored files")
					return nil
				}
				rows := make([][]string, 0, len(files.Files))
				for _, f := range files.Files {
					rows = append(rows, []string{f.Path, f.Reason, humanize.Time(f.IgnoredAt)})
				}
				fmt.Fprintln(out, renderTable([]string{"File", "Reason", "Since"}, rows, nil, color))
				return nil
			})
		},
	}
}

func newIgnoreAddCommand(ctx *commandContext) *cobra.Command {
	var (
		asFile bool
		reason string
	)
	cmd := &cobra.Command{
		Use:   "add <pattern|path>",
		Short: "Add an ignore pattern, or with --file an exact file path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				out := cmd.OutOrStdout()
				if asFile {
					path, err := filepath.Abs(args[0])
					if err != nil {
						return fmt.Errorf("resolve path: %w", err)
					}
					resp, err := client.AddIgnoredFile(cmd.Context(), path, reason)
					if err != nil {
						return err
					}
					if ctx.wantJSON() {
						return writeJSON(cmd, resp)
					}
					fmt.Fprintf(out, "Ignoring %s\n", path)
					return nil
				}
				resp, err := client.AddIgnorePattern(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ctx.wantJSON() {
					return writeJSON(cmd, resp)
				}
				fmt.Fprintf(out, "Added pattern %q\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asFile, "file", false, "Treat the argument as a file path instead of a glob")
	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded with an ignored file")
	return cmd
}

func newIgnoreRemoveCommand(ctx *commandContext) *cobra.Command {
	var asFile bool
	cmd := &cobra.Command{
		Use:   "remove <pattern|path>",
		Short: "Remove an ignore pattern, or with --file an ignored file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				target := args[0]
				var (
					resp any
					err  error
				)
				if asFile {
					if target, err = filepath.Abs(target); err != nil {
						return fmt.Errorf("resolve path: %w", err)
					}
					resp, err = client.RemoveIgnoredFile(cmd.Context(), target)
				} else {
					resp, err = client.RemoveIgnorePattern(cmd.Context(), target)
				}
				if err != nil {
					if api.IsStatus(err, 404) {
						return fmt.Errorf("%q is not in the ignore list", target)
					}
					return err
				}
				if ctx.wantJSON() {
					return writeJSON(cmd, resp)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %q\n", target)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asFile, "file", false, "Treat the argument as a file path instead of a glob")
	return cmd
}

func newIgnoreTestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test <path>",
		Short: "Report whether a path would be ignored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.TestIgnore(cmd.Context(), path)
				if err != nil {
					return err
				}
				if ctx.wantJSON() {
					return writeJSON(cmd, resp)
				}
				if resp.Ignored {
					fmt.Fprintf(cmd.OutOrStdout(), "ignored: %s\n", resp.Reason)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "not ignored")
				}
				return nil
			})
		},
	}
}
