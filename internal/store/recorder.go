package store

import (
	"context"
	"fmt"

	"github.com/LowLevelDaniel/rpnmath/internal/ir"
)

// Clock sequences evaluations within a session.
// engine.Clock satisfies it.
type Clock interface {
	Next() int64
}

// Outcome is the result of one evaluation as the caller saw it.
type Outcome struct {
	Value ir.Constant
	Err   error
	Code  string // error code of Err, empty on success
	Steps int
}

// Recorder appends evaluations of one session to the store.
type Recorder struct {
	store     *Store
	sessionID string
	clock     Clock
}

// NewRecorder writes the session record (if new) and returns a recorder
// stamping evaluations with clock.
func NewRecorder(ctx context.Context, s *Store, sess Session, clock Clock) (*Recorder, error) {
	if sess.EngineVersion == "" {
		sess.EngineVersion = ir.EngineVersion
	}
	if sess.IRVersion == "" {
		sess.IRVersion = ir.IRVersion
	}
	if err := s.WriteSession(ctx, sess); err != nil {
		return nil, err
	}
	return &Recorder{store: s, sessionID: sess.ID, clock: clock}, nil
}

// SessionID returns the session being recorded.
func (r *Recorder) SessionID() string { return r.sessionID }

// Record stores one evaluation of program.
func (r *Recorder) Record(ctx context.Context, program []ir.Item, out Outcome) (Evaluation, error) {
	hash, err := ir.ProgramHash(program)
	if err != nil {
		return Evaluation{}, fmt.Errorf("record: %w", err)
	}
	seq := r.clock.Next()
	id, err := ir.EvaluationID(r.sessionID, seq, hash)
	if err != nil {
		return Evaluation{}, fmt.Errorf("record: %w", err)
	}

	ev := Evaluation{
		ID:          id,
		SessionID:   r.sessionID,
		Seq:         seq,
		Program:     ir.FormatProgram(program),
		ProgramHash: hash,
		Steps:       out.Steps,
	}
	if out.Err != nil {
		ev.ErrorCode = out.Code
		ev.ErrorMessage = out.Err.Error()
	} else {
		ev.HasResult = true
		ev.Value = out.Value.Int64()
		ev.Bits = out.Value.Type.Bits
	}

	if err := r.store.WriteEvaluation(ctx, ev); err != nil {
		return Evaluation{}, err
	}
	return ev, nil
}
