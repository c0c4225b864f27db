package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/slipline-dev/slipline/internal/render"
)

// ClearOptions holds flags for the clear command.
type ClearOptions struct {
	*RootOptions
	Yes bool
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClearOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded slips",
		Long: `Delete every recorded slip and reset the streak. The daily limit is
kept. There is no undo for this; the command asks first unless --yes
is given.

Example:
  slipline clear
  slipline clear --yes`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "skip the confirmation prompt")

	return cmd
}

// clearResult is the JSON payload for a clear.
type clearResult struct {
	Cleared int `json:"cleared"`
}

func runClear(opts *ClearOptions, cmd *cobra.Command) error {
	app, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer app.Close()

	w := cmd.OutOrStdout()
	n := app.Journal.Len()

	if !opts.Yes {
		fmt.Fprintf(w, "This deletes all %s and resets the streak. Continue? [y/N]: ",
			render.SlipCount(n))
		scanner := bufio.NewScanner(cmd.InOrStdin())
		scanner.Scan()
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(w, "Aborted.")
			return nil
		}
	}

	app.Journal.ClearAll()
	if err := app.Close(); err != nil {
		return WrapExitError(ExitCommandError, "failed to clear slips", err)
	}

	f := newFormatter(opts.RootOptions, cmd)
	if f.JSON() {
		return f.Success(clearResult{Cleared: n})
	}
	fmt.Fprintf(w, "Cleared %s.\n", render.SlipCount(n))
	return nil
}
