package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"dsl-go/internal/app"
	"dsl-go/internal/config"
	"dsl-go/internal/preset"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a DSLApp. The caller must close it.
// operation identifies the CLI command being run (e.g. "session new", "backup").
func newApp(operation, parameters string) (*app.DSLApp, *config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewDSLApp(cfg, app.Options{
		Operation:  operation,
		Parameters: parameters,
		LogLevel:   defaults.LogLevel,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, cfg, nil
}

// runApp opens the app for cmd, runs fn and closes the app. An error from
// Close (a failed automatic backup, say) is reported when fn succeeded.
func runApp(cmd *cobra.Command, args []string, fn func(a *app.DSLApp, out *printer) error) (err error) {
	operation := strings.TrimPrefix(cmd.CommandPath(), rootCmd.Name()+" ")
	a, cfg, err := newApp(operation, strings.Join(args, " "))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	out, err := newPrinter(cmd, cfg)
	if err != nil {
		return err
	}
	return fn(a, out)
}

// readPassphrase prompts on stderr. On a terminal the input is not echoed;
// otherwise one line is read from stdin.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

var rootCmd = &cobra.Command{
	Use:          "dsl",
	Short:        "Darts practice log",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults.ProfileID, defaults.BaseDir)
		if tz, _ := cmd.Flags().GetString("timezone"); tz != "" {
			cfg.Timezone = tz
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Profile:  %s\n", cfg.ProfileID)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Println("Run 'dsl keys init' to create the backup key.")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("# Configuration from %s\n\n", defaults.ConfigPath)
		return (&config.Manager{}).Write(os.Stdout, cfg)
	},
}

var configVaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Check that the backup vault is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, args, func(a *app.DSLApp, out *printer) error {
			if err := a.ValidateVault(); err != nil {
				return err
			}
			fmt.Fprintln(out.w, "Vault OK")
			return nil
		})
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage the backup encryption key",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the backup key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, nil, func(a *app.DSLApp, out *printer) error {
			if a.EncryptionConfigured() && !a.RequiresPassphrase() {
				fmt.Fprintln(out.w, "Encryption needs no key.")
				return nil
			}

			var passphrase string
			if a.RequiresPassphrase() {
				p1, err := readPassphrase("New passphrase: ")
				if err != nil {
					return err
				}
				p2, err := readPassphrase("Repeat passphrase: ")
				if err != nil {
					return err
				}
				if p1 != p2 {
					return errors.New("passphrases do not match")
				}
				passphrase = p1
			}

			if err := a.SetupEncryption(passphrase); err != nil {
				return fmt.Errorf("creating key: %w", err)
			}
			fmt.Fprintln(out.w, "Backup key created.")
			return nil
		})
	},
}

// presets command
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the game presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := newPrinter(cmd, nil)
		if err != nil {
			return err
		}
		return out.presets(preset.All())
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		return runApp(cmd, nil, func(a *app.DSLApp, out *printer) error {
			ops, err := a.GetHistory(limit)
			if err != nil {
				return err
			}

			if len(ops) == 0 {
				fmt.Fprintln(out.w, "No operations recorded.")
				return nil
			}

			for _, op := range ops {
				duration := ""
				if op.FinishedAt != nil {
					duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
				}
				fmt.Fprintf(out.w, "#%d  %-15s  %s  %-8s  %s\n",
					op.ID,
					op.Operation,
					op.StartedAt.Local().Format("2006-01-02 15:04:05"),
					op.Status,
					duration,
				)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format: text, json or yaml (default from config)")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().String("timezone", "", "IANA timezone for session dates (default: system)")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configVaultCmd)

	keysCmd.AddCommand(keysInitCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")

	initSessionCmds()
	initStatsCmds()
	initDataCmds()
}
