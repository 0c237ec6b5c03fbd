package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/heron-guild/guildhall/internal/application/command"
	"github.com/heron-guild/guildhall/internal/domain/shared"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// run dispatches a command and reports what changed.
func run(cmd *cobra.Command, c command.Command) (*command.DispatchResult, error) {
	res, err := current.dispatch.Handle(cmd.Context(), c)
	if err != nil {
		return nil, explain(err)
	}
	if jsonOutput {
		return res, writeJSON(cmd.OutOrStdout(), eventSummaries(res.Events))
	}
	for _, e := range res.Events {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", e.EventType(), e.AggregateID())
	}
	return res, nil
}

type eventSummary struct {
	Type      shared.EventType `json:"type"`
	Aggregate string           `json:"aggregate"`
	Payload   map[string]any   `json:"payload,omitempty"`
}

func eventSummaries(events []shared.Event) []eventSummary {
	out := make([]eventSummary, 0, len(events))
	for _, e := range events {
		out = append(out, eventSummary{Type: e.EventType(), Aggregate: e.AggregateID(), Payload: e.Payload()})
	}
	return out
}

// explain turns domain errors into short messages for the terminal.
func explain(err error) error {
	switch {
	case shared.IsValidation(err):
		return fmt.Errorf("invalid input: %w", err)
	case shared.IsNotFound(err):
		return fmt.Errorf("not found: %w", err)
	case shared.IsAlreadyProcessed(err):
		return fmt.Errorf("already decided: %w", err)
	case shared.IsAlreadyExists(err):
		return fmt.Errorf("already exists: %w", err)
	default:
		return err
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
