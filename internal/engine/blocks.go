package engine

import (
	"fmt"

	"github.com/LowLevelDaniel/rpnmath/internal/buffer"
	"github.com/LowLevelDaniel/rpnmath/internal/ir"
)

// BlockID identifies a block within one evaluation.
type BlockID int

// RootBlock is the implicit outermost block.
const RootBlock BlockID = 0

// Condition is the tri-state outcome recorded on a block.
type Condition int

const (
	CondUnknown Condition = iota
	CondTrue
	CondFalse
)

func (c Condition) String() string {
	switch c {
	case CondTrue:
		return "true"
	case CondFalse:
		return "false"
	default:
		return "unknown"
	}
}

// Block is one structured scope.
type Block struct {
	ID        BlockID
	Parent    BlockID
	IsLoop    bool
	Kind      ir.CfopKind // opening record; meaningless for the root
	Condition Condition
	Start     int // position of the opening record, -1 for the root
	End       int // position of the closing record, -1 until exited
}

// Blocks is the block manager: every block created in the evaluation plus
// the stack of entered blocks.
type Blocks struct {
	blocks    []Block
	stack     []BlockID
	current   BlockID
	maxBlocks int
	maxDepth  int
}

// NewBlocks creates a manager holding only the root block.
func NewBlocks(maxBlocks, maxDepth int) *Blocks {
	return &Blocks{
		blocks:    []Block{{ID: RootBlock, Parent: RootBlock, Condition: CondTrue, Start: -1, End: -1}},
		current:   RootBlock,
		maxBlocks: maxBlocks,
		maxDepth:  maxDepth,
	}
}

// Create allocates the next block under parent with an unknown condition.
func (b *Blocks) Create(parent BlockID, isLoop bool) (BlockID, error) {
	if len(b.blocks) >= b.maxBlocks {
		return 0, newError(ErrCodeBlockLimitExceeded, -1, "more than %d blocks", b.maxBlocks)
	}
	id := BlockID(len(b.blocks))
	b.blocks = append(b.blocks, Block{ID: id, Parent: parent, IsLoop: isLoop, Start: -1, End: -1})
	return id, nil
}

// Enter pushes the current block and makes id current.
func (b *Blocks) Enter(id BlockID) error {
	if b.Get(id) == nil {
		return fmt.Errorf("enter: unknown block %d", id)
	}
	if len(b.stack) >= b.maxDepth {
		return newError(ErrCodeBlockStackOverflow, -1, "block nesting deeper than %d", b.maxDepth)
	}
	b.stack = append(b.stack, b.current)
	b.current = id
	return nil
}

// Exit stamps endPos on the current block and returns to the enclosing one.
func (b *Blocks) Exit(endPos int) (BlockID, error) {
	if b.current == RootBlock || len(b.stack) == 0 {
		return 0, newError(ErrCodeBlockStackUnderflow, endPos, "end without an open block")
	}
	exited := b.current
	b.blocks[exited].End = endPos
	b.current = b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return exited, nil
}

// Current returns the active block id.
func (b *Blocks) Current() BlockID { return b.current }

// CurrentBlock returns the active block.
func (b *Blocks) CurrentBlock() *Block { return &b.blocks[b.current] }

// Get returns the block with the given id, or nil.
func (b *Blocks) Get(id BlockID) *Block {
	if id < 0 || int(id) >= len(b.blocks) {
		return nil
	}
	return &b.blocks[id]
}

// Depth returns the number of entered blocks above the root.
func (b *Blocks) Depth() int { return len(b.stack) }

// Len returns the number of blocks created, root included.
func (b *Blocks) Len() int { return len(b.blocks) }

// Truncate forgets every block with an id of n or more. A loop iteration
// uses it to release the blocks its body created.
func (b *Blocks) Truncate(n int) {
	if n < 1 || n >= len(b.blocks) {
		return
	}
	b.blocks = b.blocks[:n]
}

// EvaluateCondition consumes the nearest operand in [from, pos) of buf and
// reports whether it is non-zero. LocalRef operands are resolved via vars.
// The record at pos shifts to pos-1.
func (b *Blocks) EvaluateCondition(buf *buffer.Buffer, from, pos int, vars *Variables) (bool, error) {
	for i := pos - 1; i >= from; i-- {
		it := buf.At(i)
		if !ir.IsOperand(it.Kind()) {
			continue
		}
		v, err := resolve(it, vars)
		if err != nil {
			return false, at(err, i)
		}
		if err := buf.Remove(i, i+1); err != nil {
			return false, err
		}
		return v.IsTrue(), nil
	}
	return false, newError(ErrCodeOperandMissing, pos, "no condition operand")
}

// resolve turns an operand record into a value.
func resolve(it ir.Item, vars *Variables) (ir.Constant, error) {
	switch v := it.(type) {
	case ir.Constant:
		return v.Clone(), nil
	case ir.LocalRef:
		return vars.Read(v.ID)
	default:
		return ir.Constant{}, newError(ErrCodeTypeMismatch, -1, "%s is not an operand", it.Kind())
	}
}
