package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"filearr/internal/api"
	"filearr/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration and runtime settings",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigSetCommand(ctx))
	configCmd.AddCommand(newConfigCheckKeyCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set paths.input_dir and tmdb.api_key (or export TMDB_API_KEY) before running filearr.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			if ctx.configPath != "" {
				fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			}
			if !ctx.configExists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

// newConfigShowCommand prints effective settings. It asks the daemon first so
// persisted overrides are included, and falls back to the config file.
func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective runtime settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var settings map[string]string
			source := "daemon"
			err := ctx.withClient(func(client *api.Client) error {
				resp, err := client.Settings(cmd.Context())
				if err != nil {
					return err
				}
				settings = resp.Settings
				return nil
			})
			if err != nil {
				if !errors.Is(err, errDaemonUnreachable) {
					return err
				}
				cfg, cfgErr := ctx.ensureConfig()
				if cfgErr != nil {
					return err
				}
				settings = config.NewLayered(cfg, nil).All()
				if key := settings[config.KeyTMDBAPIKey]; key != "" {
					settings[config.KeyTMDBAPIKey] = config.MaskSecret(key)
				}
				source = "config file (daemon unreachable)"
			}
			if ctx.wantJSON() {
				return writeJSON(cmd, api.SettingsResponse{Settings: settings})
			}
			return printSettings(cmd, settings, source)
		},
	}
}

func newConfigSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> [value]",
		Short: "Persist a runtime setting on the daemon (omit value to reset)",
		Long: "Persist a runtime setting on the daemon. Keys: " + strings.Join(config.Keys(), ", ") +
			". Omitting the value removes the override so the config file applies again.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			if !config.IsKey(key) {
				return fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(config.Keys(), ", "))
			}
			value := ""
			if len(args) == 2 {
				value = args[1]
			}
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.UpdateSettings(cmd.Context(), api.SettingsUpdate{
					Settings: map[string]string{key: value},
				})
				if err != nil {
					return err
				}
				if ctx.wantJSON() {
					return writeJSON(cmd, resp)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, resp.Settings[key])
				return nil
			})
		},
	}
}

func newConfigCheckKeyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check-key [api-key]",
		Short: "Validate a TMDB API key (defaults to the configured key)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			}
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.ValidateKey(cmd.Context(), key)
				if err != nil {
					return err
				}
				if ctx.wantJSON() {
					return writeJSON(cmd, resp)
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				if !resp.Valid {
					return fmt.Errorf("tmdb key rejected")
				}
				return nil
			})
		},
	}
}

func printSettings(cmd *cobra.Command, settings map[string]string, source string) error {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(settings))
	for _, key := range config.SortedKeys(settings) {
		value := settings[key]
		if value == "" {
			value = "-"
		}
		rows = append(rows, []string{key, value})
	}
	fmt.Fprintf(out, "Source: %s\n", source)
	fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows, nil, shouldColorize(out)))
	return nil
}
