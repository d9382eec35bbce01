package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"herald/internal/app"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	cfgPath string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "herald",
		Short:         "Paced bulk messaging and group membership over a channel adapter",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.cfgPath, "config", "./config.json", "path to config file (json or yaml)")

	root.AddCommand(
		newSendCmd(flags),
		newGroupCmd(flags),
		newContactsCmd(flags),
		newRunsCmd(flags),
		newRunCmd(flags),
	)
	return root
}

// open builds the app for a one-shot command. The caller must Close it.
func (f *rootFlags) open() (*app.App, error) {
	return app.New(f.cfgPath, nil)
}

// importIfRequested loads a contact file into the registry when --file was
// given; otherwise the active source (config numbers by default) is used.
func importIfRequested(a *app.App, file, format string) error {
	if file == "" {
		return nil
	}
	col, err := a.Import(file, app.ImportFormat(format))
	if err != nil {
		return err
	}
	fmt.Printf("imported %d contacts from %s (source %q)\n", col.Len(), file, col.Name)
	return nil
}
