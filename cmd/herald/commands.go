package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"herald/internal/storage"
)

func newSendCmd(flags *rootFlags) *cobra.Command {
	var (
		file      string
		format    string
		message   string
		batchSize int
		batch     int
		all       bool
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one message to every contact in the selected batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.open()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := importIfRequested(a, file, format); err != nil {
				return err
			}
			if all {
				batchSize = 0
			}

			sum, runErr := a.SendBulk(cmd.Context(), message, batchSize, batch)
			fmt.Printf("run %s: sent %d/%d, failed %d, skipped %d in %s\n",
				sum.RunID, sum.Sent, sum.Total, sum.Failed, sum.Skipped, sum.Took.Round(time.Millisecond))
			for _, o := range sum.Outcomes {
				if o.Error != "" {
					fmt.Printf("  %s: %s (%s)\n", o.Contact.Name, o.Status, o.Error)
				}
			}
			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "contact file to import before sending")
	cmd.Flags().StringVar(&format, "format", "", "contact file format: txt, csv or vcf (default: by extension)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "message body (default: messages.bulk from config)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "batch size; 0 sends to the whole collection")
	cmd.Flags().IntVar(&batch, "batch", 1, "1-based batch number to send")
	cmd.Flags().BoolVar(&all, "all", false, "ignore batching and send to the whole collection")
	return cmd
}

func newGroupCmd(flags *rootFlags) *cobra.Command {
	var (
		file      string
		format    string
		name      string
		batchSize int
		batch     int
	)
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Add the selected batch to a group, inviting whoever cannot be added",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.open()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := importIfRequested(a, file, format); err != nil {
				return err
			}

			sum, runErr := a.GroupRun(cmd.Context(), name, batchSize, batch)
			fmt.Printf("run %s: group %q, added %d, invited %d, failed %d, skipped %d of %d in %s\n",
				sum.RunID, sum.Group.Name, sum.Added, sum.Invited, sum.Failed, sum.Skipped,
				sum.Total, sum.Took.Round(time.Millisecond))
			if sum.InviteLink != "" {
				fmt.Println("invite link:", sum.InviteLink)
			}
			for _, o := range sum.Outcomes {
				if o.Error != "" {
					fmt.Printf("  %s: %s (%s)\n", o.Contact.Name, o.Status, o.Error)
				}
			}
			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "contact file to import before the run")
	cmd.Flags().StringVar(&format, "format", "", "contact file format: txt, csv or vcf (default: by extension)")
	cmd.Flags().StringVar(&name, "name", "", "group name (default: group_name from config)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "batch size; 0 processes the whole collection")
	cmd.Flags().IntVar(&batch, "batch", 1, "1-based batch number to process")
	return cmd
}

func newContactsCmd(flags *rootFlags) *cobra.Command {
	var (
		file   string
		format string
	)
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Import a contact file, or list the active collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.open()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := importIfRequested(a, file, format); err != nil {
				return err
			}

			col := a.Registry().Active()
			fmt.Printf("active source %q (%s), %d contacts:\n", a.Registry().ActiveName(), col.Origin, col.Len())
			for i, rec := range col.Records {
				fmt.Printf("  %3d. %s  %s\n", i+1, rec.Name, rec.Number)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "contact file to import")
	cmd.Flags().StringVar(&format, "format", "", "contact file format: txt, csv or vcf (default: by extension)")
	return cmd
}

func newRunsCmd(flags *rootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent run history from the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.open()
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.RecentRuns(cmd.Context(), limit)
			if err != nil {
				if errors.Is(err, storage.ErrDisabled) {
					return errors.New("run store is disabled; set storage.driver in the config")
				}
				return err
			}
			if len(entries) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}
			for _, e := range entries {
				printRun(e)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max entries to show")
	return cmd
}

func printRun(e storage.RunEntry) {
	when := e.At.Local().Format("2006-01-02 15:04:05")
	switch e.Kind {
	case "group":
		fmt.Printf("%s  %s  group=%q source=%s added=%d invited=%d failed=%d skipped=%d total=%d took=%dms\n",
			when, e.Kind, e.GroupName, e.Source, e.Added, e.Invited, e.Failed, e.Skipped, e.Total, e.TookMS)
	default:
		fmt.Printf("%s  %s  source=%s sent=%d failed=%d skipped=%d total=%d took=%dms\n",
			when, e.Kind, e.Source, e.Sent, e.Failed, e.Skipped, e.Total, e.TookMS)
	}
}

func newRunCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run as a daemon: watch the config and fire scheduled campaigns",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.open()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := a.Start(ctx); err != nil {
				a.Close()
				return err
			}
			// No-op outside a systemd unit with Type=notify.
			_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)

			select {
			case <-ctx.Done():
			case <-a.Done():
			}
			_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

			stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			stopErr := a.Stop(stopCtx)
			if err := a.Err(); err != nil {
				return err
			}
			return stopErr
		},
	}
	return cmd
}
