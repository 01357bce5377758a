package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rzbill/calhub/internal/eventstore"
)

// NewEventsCommand constructs the `events` command group and subcommands.
func NewEventsCommand(baseURL BaseURLFunc) *cobra.Command {
	eventsCmd := &cobra.Command{Use: "events", Short: "Calendar event operations"}

	eventsCmd.AddCommand(
		newEventsListCommand(baseURL),
		newEventsCreateCommand(baseURL),
		newEventsUpdateCommand(baseURL),
		newEventsDeleteCommand(baseURL),
		newEventsPurgeCommand(baseURL),
	)

	return eventsCmd
}

// newEventsListCommand constructs the `events list` subcommand.
func newEventsListCommand(baseURL BaseURLFunc) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List events, optionally bounded to a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, _ := cmd.Flags().GetString("start-date")
			end, _ := cmd.Flags().GetString("end-date")
			filter, _ := cmd.Flags().GetString("filter")

			events, err := newAPIClient(baseURL()).ListEvents(cmd.Context(), start, end, filter)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, ev := range events {
				_ = enc.Encode(ev)
			}
			return nil
		},
	}
	listCmd.Flags().String("start-date", "", "Range start (YYYY-MM-DD)")
	listCmd.Flags().String("end-date", "", "Range end (YYYY-MM-DD)")
	listCmd.Flags().String("filter", "", "CEL filter (server-side)")
	return listCmd
}

// newEventsCreateCommand constructs the `events create` subcommand.
func newEventsCreateCommand(baseURL BaseURLFunc) *cobra.Command {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ev := eventFromFlags(cmd)
			created, err := newAPIClient(baseURL()).CreateEvent(cmd.Context(), ev)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(created)
		},
	}
	addEventFlags(createCmd)
	return createCmd
}

// newEventsUpdateCommand constructs the `events update` subcommand.
func newEventsUpdateCommand(baseURL BaseURLFunc) *cobra.Command {
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an event by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev := eventFromFlags(cmd)
			ev.ID = args[0]
			updated, err := newAPIClient(baseURL()).UpdateEvent(cmd.Context(), ev)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(updated)
		},
	}
	addEventFlags(updateCmd)
	return updateCmd
}

// newEventsDeleteCommand constructs the `events delete` subcommand.
func newEventsDeleteCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an event by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newAPIClient(baseURL()).DeleteEvent(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
			return nil
		},
	}
}

// newEventsPurgeCommand constructs the `events purge` subcommand. It lists
// the range, then deletes each event individually, so partial failures leave
// the remaining events intact.
func newEventsPurgeCommand(baseURL BaseURLFunc) *cobra.Command {
	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every event in a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, _ := cmd.Flags().GetString("start-date")
			end, _ := cmd.Flags().GetString("end-date")
			if start == "" || end == "" {
				return fmt.Errorf("--start-date and --end-date are required")
			}

			cli := newAPIClient(baseURL())
			events, err := cli.ListEvents(cmd.Context(), start, end, "")
			if err != nil {
				return err
			}
			deleted := 0
			for _, ev := range events {
				if err := cli.DeleteEvent(cmd.Context(), ev.ID); err != nil {
					return fmt.Errorf("deleted %d of %d: %w", deleted, len(events), err)
				}
				deleted++
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "deleted:", deleted)
			return nil
		},
	}
	purgeCmd.Flags().String("start-date", "", "Range start (YYYY-MM-DD)")
	purgeCmd.Flags().String("end-date", "", "Range end (YYYY-MM-DD)")
	return purgeCmd
}

func addEventFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Event title")
	cmd.Flags().String("date", "", "Event date (YYYY-MM-DD)")
	cmd.Flags().String("time", "", "Event time (optional)")
	cmd.Flags().String("description", "", "Event description")
	cmd.Flags().String("color", "", "Event color")
}

func eventFromFlags(cmd *cobra.Command) *eventstore.Event {
	title, _ := cmd.Flags().GetString("title")
	date, _ := cmd.Flags().GetString("date")
	timeStr, _ := cmd.Flags().GetString("time")
	desc, _ := cmd.Flags().GetString("description")
	color, _ := cmd.Flags().GetString("color")
	return &eventstore.Event{
		Title:       title,
		Date:        date,
		Time:        timeStr,
		Description: desc,
		Color:       color,
	}
}
