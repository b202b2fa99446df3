// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// RENDER BLOCKS
// =============================================================================

// BlockKind classifies a rendered unit.
type BlockKind int

const (
	BlockUser BlockKind = iota
	BlockAssistant
	BlockSystem
	// BlockTools holds tool exchanges that arrived with no assistant message
	// to attach to.
	BlockTools
)

// ToolExchange pairs a tool call with its result. Call is nil for an orphaned
// result; Result is nil while a call has no result.
type ToolExchange struct {
	Call   *Event
	Result *Event
}

// Orphaned reports whether the exchange is a result with no preceding call.
func (x *ToolExchange) Orphaned() bool {
	return x.Call == nil
}

// Name returns the tool name of the exchange.
func (x *ToolExchange) Name() string {
	if x.Call != nil {
		return x.Call.ToolName
	}
	if x.Result != nil && x.Result.ToolName != "" {
		return x.Result.ToolName
	}
	return "unknown"
}

// Block is a message together with the tool exchanges that followed it.
type Block struct {
	Kind    BlockKind
	Message *Event
	Tools   []*ToolExchange
}

// IsMessage reports whether the block renders as a message.
func (b *Block) IsMessage() bool {
	return b.Message != nil && (b.Kind == BlockUser || b.Kind == BlockAssistant)
}

// BuildBlocks groups events into render blocks in sequence order:
//   - each message or system note opens a block
//   - tool calls attach to the current assistant block, or to a tools block
//   - a tool result joins the earlier call with the same id; a result whose
//     call never appeared (or was already answered) becomes an orphaned
//     exchange in place
//
// Every input event lands in exactly one block.
func BuildBlocks(events []Event) []*Block {
	var (
		blocks  []*Block
		current *Block
		pending = make(map[string]*ToolExchange)
	)

	toolHost := func() *Block {
		if current == nil || (current.Kind != BlockAssistant && current.Kind != BlockTools) {
			current = &Block{Kind: BlockTools}
			blocks = append(blocks, current)
		}
		return current
	}

	for i := range events {
		e := &events[i]
		switch e.Kind {
		case KindUserMessage:
			current = &Block{Kind: BlockUser, Message: e}
			blocks = append(blocks, current)
		case KindAssistantMessage:
			current = &Block{Kind: BlockAssistant, Message: e}
			blocks = append(blocks, current)
		case KindSystemNote:
			blocks = append(blocks, &Block{Kind: BlockSystem, Message: e})
		case KindToolCall:
			host := toolHost()
			x := &ToolExchange{Call: e}
			host.Tools = append(host.Tools, x)
			if e.CallID != "" {
				pending[e.CallID] = x
			}
		case KindToolResult:
			if x := matchCall(pending, e, current); x != nil {
				x.Result = e
				continue
			}
			host := toolHost()
			host.Tools = append(host.Tools, &ToolExchange{Result: e})
		}
	}
	return blocks
}

func matchCall(pending map[string]*ToolExchange, result *Event, current *Block) *ToolExchange {
	if result.CallID != "" {
		x, ok := pending[result.CallID]
		if !ok {
			return nil
		}
		delete(pending, result.CallID)
		return x
	}
	// No id: answer the latest unanswered id-less call of the current block.
	if current == nil {
		return nil
	}
	for i := len(current.Tools) - 1; i >= 0; i-- {
		x := current.Tools[i]
		if x.Call != nil && x.Result == nil && x.Call.CallID == "" {
			return x
		}
	}
	return nil
}
