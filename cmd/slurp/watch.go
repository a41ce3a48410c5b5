package main

import (
	"fmt"

	"slurpsocial/internal/events"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print auth and post changes until interrupted",
	Long: `Print every change announced on the event bus. With REDIS_URL set, changes
made by other slurp processes sharing the same Redis are shown too.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, unsubscribe := rt.Bus.Subscribe(events.DefaultBuffer)
		defer unsubscribe()

		gray := color.New(color.FgHiBlack).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		if rt.Redis == nil {
			fmt.Fprintln(cmd.ErrOrStderr(), gray("REDIS_URL is not set; only changes from this process will appear"))
		}

		ctx := cmd.Context()
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-ch:
				if !ok {
					return nil
				}
				if handled, err := out.structured(ev); handled {
					if err != nil {
						return err
					}
					continue
				}
				source := "local"
				if ev.Remote {
					source = "remote"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s post=%s user=%s %s\n",
					gray(ev.At.Format("15:04:05")), cyan(string(ev.Kind)), ev.PostID, ev.UserID, gray(source))
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
