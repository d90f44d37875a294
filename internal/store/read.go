package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/verifly/internal/trace"
)

const invocationColumns = `id, group_identity, spec_hash, resolved_order, status, error, seq`

// ReadInvocation returns the invocation with the given id, or an error
// wrapping ErrNotFound.
func (s *Store) ReadInvocation(ctx context.Context, id string) (trace.Invocation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+invocationColumns+`
		FROM invocations
		WHERE id = ?
	`, id)
	inv, err := scanInvocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return trace.Invocation{}, fmt.Errorf("invocation %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return trace.Invocation{}, err
	}
	return inv, nil
}

// ListInvocations returns invocations of group, or of every group when
// group is empty. Ordered by seq ASC, id COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListInvocations(ctx context.Context, group string) ([]trace.Invocation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+invocationColumns+`
		FROM invocations
		WHERE ? = '' OR group_identity = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, group, group)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer rows.Close()

	invocations := []trace.Invocation{}
	for rows.Next() {
		inv, err := scanInvocation(rows)
		if err != nil {
			return nil, err
		}
		invocations = append(invocations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invocations: %w", err)
	}
	return invocations, nil
}

// ReadSteps returns the steps of an invocation ordered by seq.
//
// Returns an empty slice (not nil) if the invocation has no steps.
func (s *Store) ReadSteps(ctx context.Context, invocationID string) ([]trace.Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT invocation_id, seq, kind, name, position, phase, error
		FROM steps
		WHERE invocation_id = ?
		ORDER BY seq ASC
	`, invocationID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []trace.Step{}
	for rows.Next() {
		var st trace.Step
		if err := rows.Scan(&st.InvocationID, &st.Seq, &st.Kind, &st.Name, &st.Position, &st.Phase, &st.Error); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvocation(row rowScanner) (trace.Invocation, error) {
	var inv trace.Invocation
	var orderJSON string
	err := row.Scan(
		&inv.ID,
		&inv.GroupIdentity,
		&inv.SpecHash,
		&orderJSON,
		&inv.Status,
		&inv.Error,
		&inv.Seq,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return trace.Invocation{}, err
	}
	if err != nil {
		return trace.Invocation{}, fmt.Errorf("scan invocation: %w", err)
	}
	if err := json.Unmarshal([]byte(orderJSON), &inv.ResolvedOrder); err != nil {
		return trace.Invocation{}, fmt.Errorf("unmarshal resolved_order for %s: %w", inv.ID, err)
	}
	if inv.ResolvedOrder == nil {
		inv.ResolvedOrder = []string{}
	}
	return inv, nil
}
