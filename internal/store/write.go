package store

import (
	"context"
	"fmt"

	"github.com/roach88/verifly/internal/ir"
	"github.com/roach88/verifly/internal/trace"
)

// WriteInvocation stores an invocation and its steps in one transaction.
//
// If an invocation with the same id already exists, nothing is written
// and nil is returned. Each step's InvocationID must equal inv.ID.
func (s *Store) WriteInvocation(ctx context.Context, inv trace.Invocation, steps []trace.Step) error {
	order := inv.ResolvedOrder
	if order == nil {
		order = []string{}
	}
	orderJSON, err := ir.MarshalCanonical(order)
	if err != nil {
		return fmt.Errorf("write invocation: marshal order: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write invocation: begin: %w", err)
	}
	defer tx.Rollback() // no-op once committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO invocations
		(id, group_identity, spec_hash, resolved_order, status, error, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		inv.ID,
		inv.GroupIdentity,
		inv.SpecHash,
		string(orderJSON),
		inv.Status,
		inv.Error,
		inv.Seq,
	)
	if err != nil {
		return fmt.Errorf("write invocation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write invocation: %w", err)
	}
	if n == 0 {
		return nil
	}

	for _, st := range steps {
		if st.InvocationID != inv.ID {
			return fmt.Errorf("write invocation: step %d belongs to %q, not %q", st.Seq, st.InvocationID, inv.ID)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO steps
			(invocation_id, seq, kind, name, position, phase, error)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`,
			st.InvocationID,
			st.Seq,
			st.Kind,
			st.Name,
			st.Position,
			st.Phase,
			st.Error,
		)
		if err != nil {
			return fmt.Errorf("write step %d: %w", st.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write invocation: commit: %w", err)
	}
	return nil
}
