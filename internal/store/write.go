package store

import (
	"context"
	"database/sql"
	"fmt"
)

// WriteSession inserts a session record.
// Uses ON CONFLICT(id) DO NOTHING so reopening a session is idempotent.
func (s *Store) WriteSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, policy, started_seq, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.Policy,
		sess.StartedSeq,
		sess.EngineVersion,
		sess.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// WriteEvaluation inserts an evaluation record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency; a different evaluation
// reusing an existing (session_id, seq) pair is still an error.
//
// Note: The session referenced by SessionID must exist (foreign key constraint).
func (s *Store) WriteEvaluation(ctx context.Context, ev Evaluation) error {
	var value, bits sql.NullInt64
	if ev.HasResult {
		value = sql.NullInt64{Int64: ev.Value, Valid: true}
		bits = sql.NullInt64{Int64: int64(ev.Bits), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO evaluations
		(id, session_id, seq, program, program_hash, result_value, result_bits, error_code, error_message, steps)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		ev.ID,
		ev.SessionID,
		ev.Seq,
		ev.Program,
		ev.ProgramHash,
		value,
		bits,
		ev.ErrorCode,
		ev.ErrorMessage,
		ev.Steps,
	)
	if err != nil {
		return fmt.Errorf("write evaluation: %w", err)
	}
	return nil
}
