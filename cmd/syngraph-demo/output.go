package main

import "github.com/oxhq/syngraph/internal/capability"

// symbolOut and tokenOut are JSON-friendly projections of the capability
// package's dispatch types -- kept separate so the wire shape of this demo
// can drift independently of the capability interfaces it renders.
type symbolOut struct {
	Name     string      `json:"name"`
	Kind     string      `json:"kind"`
	Start    uint32      `json:"start"`
	End      uint32      `json:"end"`
	Selected rangeOut    `json:"selectionRange"`
	Children []symbolOut `json:"children,omitempty"`
}

type rangeOut struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

type tokenOut struct {
	Start     uint32 `json:"start"`
	End       uint32 `json:"end"`
	TypeIndex uint32 `json:"typeIndex"`
	Modifiers uint32 `json:"modifiers"`
}

func toSymbolOut(entries []capability.DocumentSymbolEntry) []symbolOut {
	out := make([]symbolOut, 0, len(entries))
	for _, e := range entries {
		out = append(out, symbolOut{
			Name:     e.Name,
			Kind:     e.Kind,
			Start:    e.Range.Start,
			End:      e.Range.End,
			Selected: rangeOut{Start: e.Selected.Start, End: e.Selected.End},
			Children: toSymbolOut(e.Children),
		})
	}
	return out
}

func toTokenOut(tokens []capability.SemanticToken) []tokenOut {
	out := make([]tokenOut, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, tokenOut{
			Start:     t.Range.Start,
			End:       t.Range.End,
			TypeIndex: t.TypeIndex,
			Modifiers: t.Modifiers,
		})
	}
	return out
}
