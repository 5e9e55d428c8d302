package main

import (
	"fmt"
	"io"
	"os"

	"dsl-go/internal/app"
	"dsl-go/internal/dsl"

	"github.com/spf13/cobra"
)

// export command
var exportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Write a JSON snapshot of all sessions (default stdout)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, args, func(a *app.DSLApp, out *printer) error {
			path := optionalArg(args, 0)
			if path == "" || path == "-" {
				return a.Export(out.w)
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating %s: %w", path, err)
			}
			if err := a.Export(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			fmt.Fprintf(os.Stderr, "Exported to %s\n", path)
			return nil
		})
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace all sessions with a snapshot ('-' reads stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()
			r = f
		}

		return runApp(cmd, args, func(a *app.DSLApp, out *printer) error {
			result, err := a.Import(r)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			return printImport(out, "Imported", result)
		})
	},
}

func printImport(out *printer, verb string, result *dsl.ImportResult) error {
	return out.print(result, func(w io.Writer) {
		fmt.Fprintf(w, "%s %d session(s), %d stat block(s)\n", verb, result.Sessions, result.StatBlocks)
	})
}

// clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every session and stat block",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("refusing to delete all data without --yes")
		}
		return runApp(cmd, args, func(a *app.DSLApp, out *printer) error {
			if err := a.ClearAll(); err != nil {
				return err
			}
			fmt.Fprintln(out.w, "All sessions deleted.")
			return nil
		})
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Encrypt a snapshot and upload it to the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, args, func(a *app.DSLApp, out *printer) error {
			version, err := a.Backup()
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}
			fmt.Fprintf(out.w, "Backed up at version %d\n", version)
			return nil
		})
	},
}

type backupStatusView struct {
	LocalVersion  int64  `json:"local_version" yaml:"local_version"`
	RemoteVersion int64  `json:"remote_version" yaml:"remote_version"`
	State         string `json:"state" yaml:"state"`
}

func backupState(s *dsl.BackupStatus) string {
	switch {
	case s.Behind():
		return "behind"
	case s.RemoteVersion == 0 && s.LocalVersion > 0:
		return "never backed up"
	case s.UpToDate():
		return "up to date"
	default:
		return "changes not backed up"
	}
}

var backupStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Compare the local store with the vault copy",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, args, func(a *app.DSLApp, out *printer) error {
			status, err := a.BackupStatus()
			if err != nil {
				return err
			}
			v := backupStatusView{
				LocalVersion:  status.LocalVersion,
				RemoteVersion: status.RemoteVersion,
				State:         backupState(status),
			}
			return out.print(v, func(w io.Writer) {
				fmt.Fprintf(w, "local %d  vault %d  %s\n", v.LocalVersion, v.RemoteVersion, v.State)
				if status.Behind() {
					fmt.Fprintln(w, "Run 'dsl restore' before making changes.")
				}
			})
		})
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace local data with the vault copy",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, args, func(a *app.DSLApp, out *printer) error {
			var passphrase string
			if a.RequiresPassphrase() {
				p, err := readPassphrase("Passphrase: ")
				if err != nil {
					return err
				}
				passphrase = p
			}

			result, err := a.Restore(passphrase)
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}
			return printImport(out, "Restored", result)
		})
	},
}

func initDataCmds() {
	clearCmd.Flags().Bool("yes", false, "Confirm deleting all data")
	backupCmd.AddCommand(backupStatusCmd)

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}
