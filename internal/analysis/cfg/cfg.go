package cfg

import (
	"fmt"
	"io"
	"sort"

	"github.com/gnolang/cilint/internal/cil"
)

// Block is a straight-line run of instructions. The synthetic entry and
// exit blocks have no instructions.
type Block struct {
	Index        int
	Instructions []*cil.Instruction
	name         string
}

// Leader returns the first instruction of the block, or nil.
func (b *Block) Leader() *cil.Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	return b.Instructions[0]
}

// Last returns the last instruction of the block, or nil.
func (b *Block) Last() *cil.Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	return b.Instructions[len(b.Instructions)-1]
}

func (b *Block) String() string {
	if b.name != "" {
		return b.name
	}
	return b.Leader().Label()
}

// CFG is the control flow graph of one method body.
type CFG struct {
	Entry *Block
	Exit  *Block

	blocks   []*Block
	byLeader map[*cil.Instruction]*Block
	succs    map[*Block][]*Block
	preds    map[*Block][]*Block
}

// FromBody splits body into basic blocks and links them. Handler entry
// blocks are reached from the first block of their protected region.
func FromBody(body *cil.Body) *CFG {
	g := &CFG{
		Entry:    &Block{name: "ENTRY"},
		Exit:     &Block{name: "EXIT"},
		byLeader: make(map[*cil.Instruction]*Block),
		succs:    make(map[*Block][]*Block),
		preds:    make(map[*Block][]*Block),
	}
	g.blocks = append(g.blocks, g.Entry)

	if body == nil || len(body.Instructions) == 0 {
		g.addEdge(g.Entry, g.Exit)
		g.finish()
		return g
	}

	leaders := findLeaders(body)
	var cur *Block
	for _, ins := range body.Instructions {
		if leaders[ins] || cur == nil {
			cur = &Block{}
			g.blocks = append(g.blocks, cur)
			g.byLeader[ins] = cur
		}
		cur.Instructions = append(cur.Instructions, ins)
	}

	g.addEdge(g.Entry, g.byLeader[body.Entry()])
	for _, b := range g.blocks[1:] {
		last := b.Last()
		for _, target := range successors(body, last) {
			if target == nil {
				g.addEdge(b, g.Exit)
				continue
			}
			g.addEdge(b, g.byLeader[target])
		}
	}
	for _, h := range body.Handlers {
		from, to := g.byLeader[h.TryStart], g.byLeader[h.Entry()]
		if from != nil && to != nil {
			g.addEdge(from, to)
		}
	}
	g.finish()
	return g
}

func findLeaders(body *cil.Body) map[*cil.Instruction]bool {
	leaders := map[*cil.Instruction]bool{body.Entry(): true}
	for _, ins := range body.Instructions {
		switch {
		case ins.OpCode == cil.Switch:
			for _, t := range ins.Targets() {
				leaders[t] = true
			}
		case ins.Target() != nil:
			leaders[ins.Target()] = true
		case !endsFlow(ins.OpCode):
			continue
		}
		if next := body.Next(ins); next != nil {
			leaders[next] = true
		}
	}
	for _, h := range body.Handlers {
		for _, ins := range []*cil.Instruction{h.TryStart, h.TryEnd, h.HandlerStart, h.HandlerEnd, h.FilterStart} {
			if ins != nil {
				leaders[ins] = true
			}
		}
	}
	return leaders
}

// successors lists where control goes after ins; nil stands for the exit.
func successors(body *cil.Body, ins *cil.Instruction) []*cil.Instruction {
	switch ins.OpCode {
	case cil.Br, cil.BrS, cil.Leave, cil.LeaveS:
		return []*cil.Instruction{ins.Target()}
	case cil.Switch:
		return append(ins.Targets(), body.Next(ins))
	}
	if endsFlow(ins.OpCode) {
		return []*cil.Instruction{nil}
	}
	if t := ins.Target(); t != nil {
		return []*cil.Instruction{t, body.Next(ins)}
	}
	// falling off the end of the body is treated as leaving the method
	return []*cil.Instruction{body.Next(ins)}
}

func endsFlow(op cil.OpCode) bool {
	switch op {
	case cil.Ret, cil.Throw, cil.Rethrow, cil.Jmp, cil.Endfinally, cil.Endfilter:
		return true
	}
	return false
}

func (g *CFG) addEdge(from, to *Block) {
	if from == nil || to == nil {
		return
	}
	for _, s := range g.succs[from] {
		if s == to {
			return
		}
	}
	g.succs[from] = append(g.succs[from], to)
	g.preds[to] = append(g.preds[to], from)
}

func (g *CFG) finish() {
	g.blocks = append(g.blocks, g.Exit)
	for i, b := range g.blocks {
		b.Index = i
	}
}

// Blocks returns every block in instruction order, entry first and exit last.
func (g *CFG) Blocks() []*Block {
	return g.blocks
}

func (g *CFG) Succs(b *Block) []*Block {
	return g.succs[b]
}

func (g *CFG) Preds(b *Block) []*Block {
	return g.preds[b]
}

// BlockAt returns the block containing the instruction at offset.
func (g *CFG) BlockAt(offset int) *Block {
	for _, b := range g.blocks {
		for _, ins := range b.Instructions {
			if ins.Offset == offset {
				return b
			}
		}
	}
	return nil
}

// Reachable returns the blocks reachable from the entry, sorted by index.
func (g *CFG) Reachable() []*Block {
	seen := map[*Block]bool{g.Entry: true}
	stack := []*Block{g.Entry}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range g.succs[b] {
			if !seen[s] {
				seen[s] = true
				stack = append(stack, s)
			}
		}
	}
	out := make([]*Block, 0, len(seen))
	for b := range seen {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// PrintDot writes the graph in GraphViz format. label names a block; nil
// uses the block's leader label.
func (g *CFG) PrintDot(w io.Writer, label func(*Block) string) {
	if label == nil {
		label = (*Block).String
	}
	name := func(b *Block) string {
		if b == g.Entry || b == g.Exit {
			return b.name
		}
		return label(b)
	}

	fmt.Fprint(w, "\ndigraph mgraph {\n\tmode=\"heir\";\n\tsplines=\"ortho\";\n\n")
	for _, from := range g.blocks {
		for _, to := range g.succs[from] {
			fmt.Fprintf(w, "\t%q -> %q\n", name(from), name(to))
		}
	}
	fmt.Fprint(w, "}\n")
}
