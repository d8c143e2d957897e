package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

const evaluationColumns = `id, session_id, seq, program, program_hash, result_value, result_bits, error_code, error_message, steps`

// ReadSession returns the session with the given id.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, policy, started_seq, engine_version, ir_version
		FROM sessions
		WHERE id = ?
	`, id).Scan(&sess.ID, &sess.Policy, &sess.StartedSeq, &sess.EngineVersion, &sess.IRVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("read session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	return sess, nil
}

// ListSessions returns all sessions ordered by id. Session ids are UUIDv7,
// so this is creation order.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, policy, started_seq, engine_version, ir_version
		FROM sessions
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Policy, &sess.StartedSeq, &sess.EngineVersion, &sess.IRVersion); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadEvaluations returns a session's evaluations in seq order.
// Returns an empty slice (not nil) if the session has none.
func (s *Store) ReadEvaluations(ctx context.Context, sessionID string) ([]Evaluation, error) {
	return s.queryEvaluations(ctx, `
		SELECT `+evaluationColumns+`
		FROM evaluations
		WHERE session_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sessionID)
}

// FindByProgramHash returns every evaluation of a program across sessions.
func (s *Store) FindByProgramHash(ctx context.Context, hash string) ([]Evaluation, error) {
	return s.queryEvaluations(ctx, `
		SELECT `+evaluationColumns+`
		FROM evaluations
		WHERE program_hash = ?
		ORDER BY session_id COLLATE BINARY ASC, seq ASC
	`, hash)
}

// GetLastSeq returns the highest seq recorded for a session, or 0.
func (s *Store) GetLastSeq(ctx context.Context, sessionID string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(seq) FROM evaluations WHERE session_id = ?`, sessionID,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq.Int64, nil
}

func (s *Store) queryEvaluations(ctx context.Context, query string, args ...any) ([]Evaluation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	evals := []Evaluation{}
	for rows.Next() {
		ev, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evals = append(evals, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}
	return evals, nil
}

func scanEvaluation(rows *sql.Rows) (Evaluation, error) {
	var ev Evaluation
	var value, bits sql.NullInt64
	err := rows.Scan(
		&ev.ID,
		&ev.SessionID,
		&ev.Seq,
		&ev.Program,
		&ev.ProgramHash,
		&value,
		&bits,
		&ev.ErrorCode,
		&ev.ErrorMessage,
		&ev.Steps,
	)
	if err != nil {
		return Evaluation{}, fmt.Errorf("scan evaluation: %w", err)
	}
	if value.Valid {
		ev.HasResult = true
		ev.Value = value.Int64
		ev.Bits = int(bits.Int64)
	}
	return ev, nil
}
