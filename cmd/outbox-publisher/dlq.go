package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/retrostore/retrostore-backend/pkg/db/models"
	"github.com/retrostore/retrostore-backend/pkg/enums"
)

type dlqAdmin interface {
	List(ctx context.Context, reason enums.OutboxDLQErrorReason, limit int) ([]models.OutboxDLQ, error)
	Replay(ctx context.Context, eventID uuid.UUID, force bool) (uuid.UUID, error)
}

// dlqCommand is the one-shot maintenance mode selected by -dlq-list or
// -dlq-replay instead of the publish loop.
type dlqCommand struct {
	List   bool
	Reason string
	Limit  int
	Replay string
	Force  bool
}

func (c dlqCommand) active() bool { return c.List || c.Replay != "" }

func (c dlqCommand) run(ctx context.Context, repo dlqAdmin, out io.Writer) error {
	if c.Replay != "" {
		eventID, err := uuid.Parse(c.Replay)
		if err != nil {
			return fmt.Errorf("invalid event id %q: %w", c.Replay, err)
		}
		newID, err := repo.Replay(ctx, eventID, c.Force)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "requeued %s as outbox event %s\n", eventID, newID)
		return err
	}

	var reason enums.OutboxDLQErrorReason
	if c.Reason != "" {
		parsed, err := enums.ParseOutboxDLQErrorReason(c.Reason)
		if err != nil {
			return err
		}
		reason = parsed
	}
	rows, err := repo.List(ctx, reason, c.Limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EVENT ID\tTYPE\tREASON\tATTEMPTS\tFAILED AT\tERROR")
	for _, row := range rows {
		msg := ""
		if row.ErrorMessage != nil {
			msg = *row.ErrorMessage
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			row.EventID, row.EventType, row.ErrorReason, row.AttemptCount,
			row.FailedAt.UTC().Format(time.RFC3339), msg)
	}
	return tw.Flush()
}
