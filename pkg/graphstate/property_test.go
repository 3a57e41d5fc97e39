package graphstate

import (
	"context"
	"fmt"
	"testing"

	"github.com/dd0wney/etymograph/pkg/etymology"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const propWords = 8

// lexiconFromCodes builds a lexicon of propWords words where each code
// selects a relationship: source, target and type are packed into it.
func lexiconFromCodes(codes []int) *fakeLookup {
	f := newFakeLookup()
	for i := 0; i < propWords; i++ {
		f.word(fmt.Sprintf("w%d", i), "en")
	}
	for _, c := range codes {
		src := c % propWords
		dst := (c / propWords) % propWords
		if src == dst {
			continue
		}
		t := etymology.RelationTypes[(c/(propWords*propWords))%len(etymology.RelationTypes)]
		f.relate(etymology.WordID(fmt.Sprintf("w%d", src), "en"), t, etymology.WordID(fmt.Sprintf("w%d", dst), "en"))
	}
	return f
}

// replay drives the engine with ops: each op focuses, expands or selects
// the word it names.
func replay(e *Engine, ops []int) {
	ctx := context.Background()
	for _, op := range ops {
		id := etymology.WordID(fmt.Sprintf("w%d", op%propWords), "en")
		switch (op / propWords) % 3 {
		case 0:
			_ = e.Focus(ctx, id)
		case 1:
			_ = e.Expand(ctx, id)
		default:
			_ = e.Select(id)
		}
	}
	e.Wait()
}

func endpointsVisible(e *Engine) bool {
	visible := make(map[string]bool)
	for _, n := range e.Nodes() {
		if visible[n.ID] {
			return false
		}
		visible[n.ID] = true
	}
	seen := make(map[string]bool)
	for _, edge := range e.Edges() {
		if seen[edge.ID] || !visible[edge.Source] || !visible[edge.Target] {
			return false
		}
		seen[edge.ID] = true
	}
	return true
}

func TestEngineProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	codes := gen.SliceOfN(12, gen.IntRange(0, propWords*propWords*4-1))
	ops := gen.SliceOfN(10, gen.IntRange(0, propWords*3-1))

	properties.Property("edge endpoints are always visible", prop.ForAll(
		func(codes, ops []int) bool {
			for _, opts := range []Options{StaticOptions(), RemoteOptions()} {
				e := NewEngine(lexiconFromCodes(codes), opts)
				replay(e, ops)
				ok := endpointsVisible(e)
				e.Close()
				if !ok {
					return false
				}
			}
			return true
		},
		codes, ops,
	))

	properties.Property("expanding twice changes nothing", prop.ForAll(
		func(codes, ops []int, target int) bool {
			e := NewEngine(lexiconFromCodes(codes), StaticOptions())
			defer e.Close()
			replay(e, ops)

			id := etymology.WordID(fmt.Sprintf("w%d", target), "en")
			if _, ok := e.Node(id); !ok {
				_ = e.Focus(context.Background(), id)
			}
			_ = e.Expand(context.Background(), id)
			n1, m1 := e.Size()
			_ = e.Expand(context.Background(), id)
			n2, m2 := e.Size()
			return n1 == n2 && m1 == m2
		},
		codes, ops, gen.IntRange(0, propWords-1),
	))

	properties.Property("derived flags match the lexicon", prop.ForAll(
		func(codes, ops []int) bool {
			lex := lexiconFromCodes(codes)
			e := NewEngine(lex, StaticOptions())
			defer e.Close()
			replay(e, ops)
			for _, n := range e.Nodes() {
				if n.HasExpandableNeighbors != lex.HasRelations(n.ID) {
					return false
				}
				if n.IsExpanded != e.IsExpanded(n.ID) {
					return false
				}
			}
			return true
		},
		codes, ops,
	))

	properties.Property("reset leaves exactly the seeds", prop.ForAll(
		func(codes, ops []int, seeds []int) bool {
			e := NewEngine(lexiconFromCodes(codes), StaticOptions())
			defer e.Close()
			replay(e, ops)

			want := make(map[string]bool)
			var records []etymology.WordRecord
			for _, s := range seeds {
				w := etymology.WordRecord{Word: fmt.Sprintf("w%d", s), Language: "en"}
				records = append(records, w)
				want[w.Normalize().ID] = true
			}
			e.Reset(records)

			nodes, edges := e.Size()
			if nodes != len(want) || edges != 0 || e.Selected() != "" {
				return false
			}
			for _, n := range e.Nodes() {
				if !want[n.ID] || n.IsExpanded {
					return false
				}
			}
			return true
		},
		codes, ops, gen.SliceOfN(3, gen.IntRange(0, propWords-1)),
	))

	properties.TestingRun(t)
}
