package refsync

import (
	"encoding/json"
	"fmt"

	"maprandovideos.io/videos/internal/catalog"
)

// walkRequirements walks a strat's requirement tree, which may legitimately
// revisit the same sub-tree by value (the region JSON files are not
// guaranteed well-formed), and emits one NotableStrat edge per `{"notable":
// name}` leaf it reaches. It is modeled as an explicit worklist rather than
// plain recursion so a visited-set can short-circuit cycles instead of
// overflowing the stack.
func walkRequirements(items []json.RawMessage, roomID, stratID int32, notableIDs map[string]int32) ([]catalog.NotableStrat, error) {
	var edges []catalog.NotableStrat
	seen := make(map[string]bool)

	type frame struct {
		remaining []json.RawMessage
	}
	stack := []frame{{remaining: items}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if len(top.remaining) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		item := top.remaining[0]
		top.remaining = top.remaining[1:]

		key := string(item)
		if seen[key] {
			continue
		}
		seen[key] = true

		var leaf string
		if err := json.Unmarshal(item, &leaf); err == nil {
			// A bare string is a tech/item requirement name; not a notable.
			continue
		}

		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, fmt.Errorf("refsync: malformed requirement in strat %d: %w", stratID, err)
		}

		if raw, ok := obj["notable"]; ok {
			var name string
			if err := json.Unmarshal(raw, &name); err != nil {
				return nil, fmt.Errorf("refsync: malformed notable requirement in strat %d: %w", stratID, err)
			}
			notableID, ok := notableIDs[name]
			if !ok {
				return nil, fmt.Errorf("refsync: strat %d references unknown notable %q", stratID, name)
			}
			edges = append(edges, catalog.NotableStrat{RoomID: roomID, NotableID: notableID, StratID: stratID})
			continue
		}

		if raw, ok := obj["and"]; ok {
			children, err := decodeChildren(raw, stratID)
			if err != nil {
				return nil, err
			}
			stack = append(stack, frame{remaining: children})
			continue
		}
		if raw, ok := obj["or"]; ok {
			children, err := decodeChildren(raw, stratID)
			if err != nil {
				return nil, err
			}
			stack = append(stack, frame{remaining: children})
			continue
		}

		// Other requirement kinds (item, tech map, helper references, ...)
		// do not affect the notable-strat relation and are skipped.
	}

	return edges, nil
}

func decodeChildren(raw json.RawMessage, stratID int32) ([]json.RawMessage, error) {
	var children []json.RawMessage
	if err := json.Unmarshal(raw, &children); err != nil {
		return nil, fmt.Errorf("refsync: malformed and/or branch in strat %d: %w", stratID, err)
	}
	return children, nil
}
