package main

import (
	"fmt"
	"strings"

	"dsl-go/internal/app"
	"dsl-go/internal/dsl"
	"dsl-go/internal/model"

	"github.com/spf13/cobra"
)

// optionalArg returns the optional argument at index i, or "".
func optionalArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}

func gameArg(raw string) model.ActivityType {
	return model.ActivityType(strings.ToUpper(strings.TrimSpace(raw)))
}

// editAndShow applies edit to the session on rawDate and prints the result.
func editAndShow(cmd *cobra.Command, args []string, rawDate string, edit func(*dsl.Draft) error) error {
	return runApp(cmd, args, func(a *app.DSLApp, out *printer) error {
		draft, err := a.EditSession(rawDate, edit)
		if err != nil {
			return err
		}
		return out.session(draft.Session, draft.Blocks)
	})
}

// session command
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage practice sessions",
}

var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start today's session with the default games",
	RunE: func(cmd *cobra.Command, args []string) error {
		location, _ := cmd.Flags().GetString("location")
		memo, _ := cmd.Flags().GetString("memo")
		tags, _ := cmd.Flags().GetStringSlice("tag")

		return runApp(cmd, args, func(a *app.DSLApp, out *printer) error {
			draft, err := a.StartSession(location, memo, tags)
			if err != nil {
				return fmt.Errorf("starting session: %w", err)
			}
			return out.session(draft.Session, draft.Blocks)
		})
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		period, _ := cmd.Flags().GetString("period")
		game, _ := cmd.Flags().GetString("game")

		return runApp(cmd, args, func(a *app.DSLApp, out *printer) error {
			sessions, err := a.ListSessions(period, game)
			if err != nil {
				return err
			}
			return out.sessions(sessions)
		})
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show [DATE]",
	Short: "Show a session (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, args, func(a *app.DSLApp, out *printer) error {
			detail, err := a.SessionDetail(optionalArg(args, 0))
			if err != nil {
				return err
			}
			return out.session(detail.Session, detail.Blocks)
		})
	},
}

var sessionEditCmd = &cobra.Command{
	Use:   "edit [DATE]",
	Short: "Change a session's location or memo",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		location, _ := cmd.Flags().GetString("location")
		memo, _ := cmd.Flags().GetString("memo")
		setLocation := cmd.Flags().Changed("location")
		setMemo := cmd.Flags().Changed("memo")
		if !setLocation && !setMemo {
			return fmt.Errorf("nothing to change: pass --location or --memo")
		}

		return editAndShow(cmd, args, optionalArg(args, 0), func(d *dsl.Draft) error {
			if setLocation {
				d.Session.Location = location
			}
			if setMemo {
				d.Session.Memo = memo
			}
			return nil
		})
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete DATE",
	Short: "Delete a session and its stat blocks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, args, func(a *app.DSLApp, out *printer) error {
			if err := a.DeleteSession(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(out.w, "Deleted session %s\n", args[0])
			return nil
		})
	},
}

// block command
var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Edit the stat blocks of a session",
}

var blockAddCmd = &cobra.Command{
	Use:   "add GAME",
	Short: "Add a game block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		game := gameArg(args[0])
		return editAndShow(cmd, args, date, func(d *dsl.Draft) error {
			return d.AddBlock(game)
		})
	},
}

var blockSetCmd = &cobra.Command{
	Use:   "set GAME KEY [VALUE]",
	Short: "Set an item value; omit VALUE to clear it",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		game := gameArg(args[0])
		return editAndShow(cmd, args, date, func(d *dsl.Draft) error {
			return d.SetValue(game, args[1], optionalArg(args, 2))
		})
	},
}

var blockRemoveCmd = &cobra.Command{
	Use:   "remove GAME",
	Short: "Remove a game block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		game := gameArg(args[0])
		return editAndShow(cmd, args, date, func(d *dsl.Draft) error {
			for i, b := range d.Blocks {
				if b.ActivityType == game {
					return d.RemoveBlock(i)
				}
			}
			return fmt.Errorf("no %q block in session: %w", game, dsl.ErrNotFound)
		})
	},
}

var blockCustomCmd = &cobra.Command{
	Use:   "custom GAME KEY TYPE",
	Short: "Add a custom item (TYPE is NUMBER, TEXT or BOOL)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		vt, err := model.ParseValueType(args[2])
		if err != nil {
			return fmt.Errorf("%w: %v", dsl.ErrInvalidInput, err)
		}
		game := gameArg(args[0])
		return editAndShow(cmd, args, date, func(d *dsl.Draft) error {
			return d.AddCustomItem(game, args[1], vt)
		})
	},
}

// tag command
var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage session tags",
}

var tagAddCmd = &cobra.Command{
	Use:   "add TAG...",
	Short: "Add tags to a session",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		return editAndShow(cmd, args, date, func(d *dsl.Draft) error {
			for _, tag := range args {
				if err := d.AddTag(tag); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var tagRemoveCmd = &cobra.Command{
	Use:   "remove TAG...",
	Short: "Remove tags from a session",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		return editAndShow(cmd, args, date, func(d *dsl.Draft) error {
			for _, tag := range args {
				d.RemoveTag(tag)
			}
			return nil
		})
	},
}

func initSessionCmds() {
	sessionNewCmd.Flags().StringP("location", "l", "", "Where you practised (default from config)")
	sessionNewCmd.Flags().StringP("memo", "m", "", "Free-form note")
	sessionNewCmd.Flags().StringSliceP("tag", "t", nil, "Tag (repeatable)")
	sessionListCmd.Flags().StringP("period", "p", "all", "Number of days, or 'all'")
	sessionListCmd.Flags().StringP("game", "g", "all", "Only sessions with this game")
	sessionEditCmd.Flags().StringP("location", "l", "", "New location")
	sessionEditCmd.Flags().StringP("memo", "m", "", "New memo")

	sessionCmd.AddCommand(sessionNewCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionEditCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)

	for _, c := range []*cobra.Command{blockAddCmd, blockSetCmd, blockRemoveCmd, blockCustomCmd, tagAddCmd, tagRemoveCmd} {
		c.Flags().StringP("date", "d", "", "Session date: today, yesterday or YYYY-MM-DD")
	}

	blockCmd.AddCommand(blockAddCmd)
	blockCmd.AddCommand(blockSetCmd)
	blockCmd.AddCommand(blockRemoveCmd)
	blockCmd.AddCommand(blockCustomCmd)

	tagCmd.AddCommand(tagAddCmd)
	tagCmd.AddCommand(tagRemoveCmd)

	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(tagCmd)
}
