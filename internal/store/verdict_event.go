package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const verdictEventsTable = "verdict_events"

func (r *eventRepo) AppendVerdictEvent(ctx context.Context, data VerdictEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := entsql.Dialect(r.dialect).
		Insert(verdictEventsTable).
		Columns("sequence", "timestamp", "user_id", "element_id", "verdict", "newly_passed").
		Values(seqNum, formatTime(time.Now()), data.UserID, data.ElementID, data.Verdict, data.NewlyPassed).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save verdict event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryVerdictEvents(ctx context.Context, userID string, opts QueryOpts) ([]VerdictEvent, error) {
	b := entsql.Dialect(r.dialect)
	sel := b.Select("sequence", "timestamp", "user_id", "element_id", "verdict", "newly_passed").
		From(b.Table(verdictEventsTable)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("sequence"))
	applyQueryOpts(sel, opts)

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query verdict events: %w", err)
	}
	defer rows.Close()

	var events []VerdictEvent
	for rows.Next() {
		var (
			e  VerdictEvent
			ts string
		)
		if err := rows.Scan(&e.ID, &ts, &e.UserID, &e.ElementID, &e.Verdict, &e.NewlyPassed); err != nil {
			return nil, fmt.Errorf("scan verdict event: %w", err)
		}
		e.Timestamp = parseTime(ts)
		events = append(events, e)
	}
	return events, rows.Err()
}
