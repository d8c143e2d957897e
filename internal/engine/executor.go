package engine

import (
	"fmt"
	"log/slog"

	"github.com/LowLevelDaniel/rpnmath/internal/buffer"
	"github.com/LowLevelDaniel/rpnmath/internal/ir"
)

// Executor runs one program held in a Buffer.
//
// The executor owns the buffer, the variable table and the block manager
// for the duration of one evaluation. A single forward cursor walks the
// buffer; reductions rewrite records in place and loops rewind the cursor
// onto their opening record.
//
// INVARIANTS:
//   - Every record in [cursor, next operator) is an operand.
//   - Records before the cursor are never rewritten, so block Start
//     positions stay valid while the block is open.
type Executor struct {
	buf    *buffer.Buffer
	vars   *Variables
	blocks *Blocks
	policy Policy
	limits Limits
	strict bool
	log    *slog.Logger
	tracer Tracer

	cursor    int
	steps     int
	landed    bool // a false branch skip stopped on the else/elif at landedAt
	landedAt  int
	templates map[BlockID][]ir.Item

	ran    bool
	result ir.Constant
	err    error
}

// New creates an executor for buf. The executor takes ownership of buf.
func New(buf *buffer.Buffer, opts ...Option) *Executor {
	e := &Executor{
		buf:       buf,
		policy:    PolicyVersioned,
		limits:    DefaultLimits(),
		log:       slog.Default(),
		templates: make(map[BlockID][]ir.Item),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.vars = NewVariables(e.limits.MaxVariables, e.policy)
	e.blocks = NewBlocks(e.limits.MaxBlocks, e.limits.MaxDepth)
	return e
}

// Execute is a convenience wrapper for New(buf, opts...).Execute().
func Execute(buf *buffer.Buffer, opts ...Option) (ir.Constant, error) {
	return New(buf, opts...).Execute()
}

// Variables returns the variable table.
func (e *Executor) Variables() *Variables { return e.vars }

// Blocks returns the block manager.
func (e *Executor) Blocks() *Blocks { return e.blocks }

// Steps returns the number of executor steps taken.
func (e *Executor) Steps() int { return e.steps }

// Buffer returns the buffer in its current, partially reduced state.
func (e *Executor) Buffer() *buffer.Buffer { return e.buf }

// Execute runs the program to a result or an error. The buffer is consumed;
// calling Execute again returns the first outcome.
func (e *Executor) Execute() (ir.Constant, error) {
	if e.ran {
		return e.result.Clone(), e.err
	}
	e.ran = true
	e.result, e.err = e.run()
	if e.err != nil {
		e.log.Debug("evaluation failed", "code", CodeOf(e.err), "steps", e.steps, "error", e.err)
	}
	return e.result.Clone(), e.err
}

func isOperatorRecord(it ir.Item) bool { return ir.IsOperator(it.Kind()) }

func (e *Executor) run() (ir.Constant, error) {
	for {
		if e.limits.MaxSteps > 0 && e.steps >= e.limits.MaxSteps {
			return ir.Constant{}, newError(ErrCodeStepLimitExceeded, e.cursor, "exceeded %d steps", e.limits.MaxSteps)
		}
		e.steps++

		pos, ok := e.buf.Next(e.cursor, isOperatorRecord)
		if !ok {
			return e.finish()
		}

		var err error
		switch rec := e.buf.At(pos).(type) {
		case ir.ControlFlowOperator:
			err = e.controlFlow(pos, rec)
		case ir.Operator:
			err = e.operator(pos, rec)
		case ir.VariadicOperator:
			var v ir.Constant
			var done bool
			v, done, err = e.variadic(pos, rec)
			if err == nil && done {
				return v, nil
			}
		default:
			err = newError(ErrCodeUnknownOperator, pos, "unexpected %s record", rec.Kind())
		}
		if err != nil {
			return ir.Constant{}, at(err, pos)
		}
	}
}

// finish handles a buffer with no operator left after the cursor.
func (e *Executor) finish() (ir.Constant, error) {
	if e.blocks.Current() != RootBlock {
		blk := e.blocks.CurrentBlock()
		return ir.Constant{}, newError(ErrCodeUnbalancedBlock, blk.Start, "%s block has no end", blk.Kind.Name())
	}
	if e.strict {
		return ir.Constant{}, newError(ErrCodeNoReturnReached, -1, "program ended without ret")
	}
	for i := e.buf.Len() - 1; i >= e.cursor; i-- {
		it := e.buf.At(i)
		if !ir.IsOperand(it.Kind()) {
			continue
		}
		v, err := resolve(it, e.vars)
		if err != nil {
			return ir.Constant{}, at(err, i)
		}
		e.emit(ActionReturn, i, describe(v))
		return v, nil
	}
	return ir.Constant{}, newError(ErrCodeNoReturnReached, -1, "program ended without a result")
}

type operand struct {
	pos  int
	item ir.Item
}

// operands returns the n records immediately before pos, in program order.
func (e *Executor) operands(pos, n int) ([]operand, error) {
	if pos-e.cursor < n {
		return nil, newError(ErrCodeOperandMissing, pos, "need %d operands, have %d", n, pos-e.cursor)
	}
	out := make([]operand, n)
	for i := 0; i < n; i++ {
		p := pos - n + i
		out[i] = operand{pos: p, item: e.buf.At(p)}
	}
	return out, nil
}

func (e *Executor) value(op operand) (ir.Constant, error) {
	v, err := resolve(op.item, e.vars)
	if err != nil {
		return ir.Constant{}, at(err, op.pos)
	}
	return v, nil
}

func (e *Executor) operator(pos int, rec ir.Operator) error {
	ops, err := e.operands(pos, rec.Op.ArgCount())
	if err != nil {
		return err
	}

	if rec.Op == ir.OpAssign {
		target, ok := ops[1].item.(ir.LocalRef)
		if !ok {
			return newError(ErrCodeTypeMismatch, ops[1].pos, "assignment target must be a variable, got %s", ops[1].item)
		}
		v, err := e.value(ops[0])
		if err != nil {
			return err
		}
		if err := e.vars.Assign(target.ID, v, e.blocks.Current()); err != nil {
			return err
		}
		e.emit(ActionAssign, pos, fmt.Sprintf("%s = %s", target, describe(v)))
		return e.buf.Remove(ops[0].pos, pos+1)
	}

	a, err := e.value(ops[0])
	if err != nil {
		return err
	}
	b, err := e.value(ops[1])
	if err != nil {
		return err
	}

	var result ir.Constant
	switch {
	case rec.Op.IsArithmetic():
		var promoted bool
		result, promoted, err = Arithmetic(rec.Op, a, b)
		if err != nil {
			return err
		}
		if promoted {
			e.log.Debug("integer width promoted",
				"op", rec.Op.Symbol(),
				"from", max(a.Type.Bits, b.Type.Bits),
				"to", result.Type.Bits,
				"code", ErrCodeOverflowPromoted,
			)
			e.emit(ActionPromote, pos, fmt.Sprintf("%s -> %s", ir.Int(max(a.Type.Bits, b.Type.Bits)), result.Type))
		}
	case rec.Op.IsComparison():
		result, err = Compare(rec.Op, a, b)
		if err != nil {
			return err
		}
	default:
		return newError(ErrCodeUnknownOperator, pos, "operator %s", rec.Op.Symbol())
	}

	dst := ops[0].pos
	if err := e.buf.Splice(dst, pos+1, result); err != nil {
		return err
	}
	e.emit(ActionReduce, dst, fmt.Sprintf("%s %s %s = %s", a, rec.Op.Symbol(), b, describe(result)))
	return e.consumeCondition(dst)
}

// consumeCondition takes the value just produced at pos as the condition
// of a while or elif block still waiting for one.
func (e *Executor) consumeCondition(pos int) error {
	blk := e.blocks.CurrentBlock()
	if blk.Condition != CondUnknown || (blk.Kind != ir.CfWhile && blk.Kind != ir.CfElif) || blk.ID == RootBlock {
		return nil
	}
	it := e.buf.At(pos)
	v, err := resolve(it, e.vars)
	if err != nil {
		return err
	}
	if err := e.buf.Remove(pos, pos+1); err != nil {
		return err
	}
	if v.IsTrue() {
		blk.Condition = CondTrue
		e.emit(ActionCondition, pos, "true")
		return nil
	}
	blk.Condition = CondFalse
	e.emit(ActionCondition, pos, "false")

	id, start, kind := blk.ID, blk.Start, blk.Kind
	if kind == ir.CfWhile {
		end, _, err := e.matchForward(start+1, false)
		if err != nil {
			return err
		}
		if _, err := e.blocks.Exit(end); err != nil {
			return err
		}
		e.cursor = end + 1
		e.emit(ActionExit, end, "loop "+itoa(int(id)))
		return nil
	}

	if _, err := e.blocks.Exit(-1); err != nil {
		return err
	}
	return e.skipBranch(start, id)
}

// skipBranch moves the cursor from a false branch opened at pos to the next
// else/elif of the same chain (landing on it) or past its end.
func (e *Executor) skipBranch(pos int, id BlockID) error {
	target, kind, err := e.matchForward(pos+1, true)
	if err != nil {
		return err
	}
	if kind == ir.CfEnd {
		if blk := e.blocks.Get(id); blk != nil {
			blk.End = target
		}
		e.cursor = target + 1
		e.emit(ActionSkip, target, "past end")
		return nil
	}
	e.cursor = target
	e.landed, e.landedAt = true, target
	e.emit(ActionSkip, target, "to "+kind.Name())
	return nil
}

// matchForward finds the end matching an opener whose body starts at from,
// tracking nested openers. With stopAtBranch it also stops at an else or
// elif of the same nesting level.
func (e *Executor) matchForward(from int, stopAtBranch bool) (int, ir.CfopKind, error) {
	depth := 0
	for i := from; i < e.buf.Len(); i++ {
		cf, ok := e.buf.At(i).(ir.ControlFlowOperator)
		if !ok {
			continue
		}
		switch {
		case cf.Op.OpensBlock():
			depth++
		case cf.Op == ir.CfEnd:
			if depth == 0 {
				return i, ir.CfEnd, nil
			}
			depth--
		case (cf.Op == ir.CfElse || cf.Op == ir.CfElif) && depth == 0 && stopAtBranch:
			return i, cf.Op, nil
		}
	}
	return -1, 0, newError(ErrCodeUnbalancedBlock, from-1, "no matching end")
}

func (e *Executor) controlFlow(pos int, rec ir.ControlFlowOperator) error {
	switch rec.Op {
	case ir.CfIf:
		return e.openIf(pos)
	case ir.CfElse, ir.CfElif:
		return e.branch(pos, rec.Op)
	case ir.CfWhile, ir.CfLoop:
		return e.openLoop(pos, rec.Op)
	case ir.CfEnd:
		return e.end(pos)
	case ir.CfMerge:
		return e.buf.Remove(pos, pos+1)
	case ir.CfPhi:
		chosen, err := ResolvePhi(e.vars, rec.Target, rec.Sources, e.blocks.Current())
		if err != nil {
			return err
		}
		e.emit(ActionPhi, pos, fmt.Sprintf("$%d <- $%d", rec.Target, chosen))
		return e.buf.Remove(pos, pos+1)
	default:
		return newError(ErrCodeUnknownOperator, pos, "control flow %s", rec.Op.Name())
	}
}

func (e *Executor) openIf(pos int) error {
	cond, err := e.blocks.EvaluateCondition(e.buf, e.cursor, pos, e.vars)
	if err != nil {
		return err
	}
	pos--

	id, err := e.blocks.Create(e.blocks.Current(), false)
	if err != nil {
		return err
	}
	blk := e.blocks.Get(id)
	blk.Kind, blk.Start = ir.CfIf, pos
	blk.Condition = CondFalse
	if cond {
		blk.Condition = CondTrue
	}
	e.emit(ActionCondition, pos, blk.Condition.String())

	if !cond {
		return e.skipBranch(pos, id)
	}
	if err := e.blocks.Enter(id); err != nil {
		return err
	}
	e.cursor = pos + 1
	e.emit(ActionEnter, pos, "if "+itoa(int(id)))
	return nil
}

// branch handles else and elif. After a false chain it opens the next
// branch; after a taken branch it closes it and skips to the chain's end.
func (e *Executor) branch(pos int, op ir.CfopKind) error {
	if e.landed && e.landedAt == pos {
		e.landed = false
		id, err := e.blocks.Create(e.blocks.Current(), false)
		if err != nil {
			return err
		}
		blk := e.blocks.Get(id)
		blk.Kind, blk.Start = op, pos
		if op == ir.CfElse {
			blk.Condition = CondTrue
		}
		if err := e.blocks.Enter(id); err != nil {
			return err
		}
		e.cursor = pos + 1
		e.emit(ActionEnter, pos, op.Name()+" "+itoa(int(id)))
		return nil
	}

	if _, err := e.blocks.Exit(pos); err != nil {
		return err
	}
	end, _, err := e.matchForward(pos+1, false)
	if err != nil {
		return err
	}
	e.cursor = end + 1
	e.emit(ActionSkip, end, "past end")
	return nil
}

func (e *Executor) openLoop(pos int, op ir.CfopKind) error {
	cond := CondUnknown
	if op == ir.CfLoop {
		cond = CondTrue
	}

	if cur := e.blocks.CurrentBlock(); cur.IsLoop && cur.Start == pos {
		cur.Condition = cond
		e.cursor = pos + 1
		return nil
	}

	end, _, err := e.matchForward(pos+1, false)
	if err != nil {
		return err
	}
	tmpl, err := e.buf.Slice(pos, end+1)
	if err != nil {
		return err
	}
	id, err := e.blocks.Create(e.blocks.Current(), true)
	if err != nil {
		return err
	}
	blk := e.blocks.Get(id)
	blk.Kind, blk.Start, blk.Condition = op, pos, cond
	if err := e.blocks.Enter(id); err != nil {
		return err
	}
	e.templates[id] = tmpl
	e.cursor = pos + 1
	e.emit(ActionEnter, pos, op.Name()+" "+itoa(int(id)))
	return nil
}

func (e *Executor) end(pos int) error {
	blk := e.blocks.CurrentBlock()
	if blk.ID == RootBlock {
		return newError(ErrCodeBlockStackUnderflow, pos, "end without an open block")
	}
	if !blk.IsLoop {
		id, err := e.blocks.Exit(pos)
		if err != nil {
			return err
		}
		e.cursor = pos + 1
		e.emit(ActionExit, pos, blk.Kind.Name()+" "+itoa(int(id)))
		return nil
	}

	if blk.Condition == CondUnknown {
		return newError(ErrCodeOperandMissing, pos, "while condition never produced")
	}
	tmpl := e.templates[blk.ID]
	if err := e.buf.Splice(blk.Start, pos+1, tmpl...); err != nil {
		return err
	}
	e.blocks.Truncate(int(blk.ID) + 1)
	e.landed = false
	e.cursor = blk.Start
	e.emit(ActionRewind, blk.Start, "loop "+itoa(int(blk.ID)))
	return nil
}

func (e *Executor) variadic(pos int, rec ir.VariadicOperator) (ir.Constant, bool, error) {
	switch rec.Op {
	case ir.VopRet:
		if rec.ArgCount < 1 {
			return ir.Constant{}, false, newError(ErrCodeOperandMissing, pos, "ret needs at least one operand")
		}
		ops, err := e.operands(pos, rec.ArgCount)
		if err != nil {
			return ir.Constant{}, false, err
		}
		var v ir.Constant
		for _, op := range ops {
			if v, err = e.value(op); err != nil {
				return ir.Constant{}, false, err
			}
		}
		e.emit(ActionReturn, pos, describe(v))
		return v, true, nil
	case ir.VopCall:
		return ir.Constant{}, false, newError(ErrCodeUnknownOperator, pos, "call is not implemented")
	default:
		return ir.Constant{}, false, newError(ErrCodeUnknownOperator, pos, "variadic %s", rec.Op.Name())
	}
}

func (e *Executor) emit(action string, pos int, detail string) {
	if e.tracer == nil {
		return
	}
	e.tracer.OnStep(Step{
		Seq:    e.steps,
		Action: action,
		Pos:    pos,
		Detail: detail,
		Block:  e.blocks.Current(),
	})
}
