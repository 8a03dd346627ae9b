package events

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// PatchOp is a single RFC 6902 JSON Patch operation carried by a StateDelta
// event. Value is retained as raw JSON so the adapter never re-shapes state
// payloads it does not own.
type PatchOp struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
	From  string          `json:"from,omitempty"`
}

// patchOps enumerates the RFC 6902 operation names.
var patchOps = map[string]struct{}{
	"add":     {},
	"remove":  {},
	"replace": {},
	"move":    {},
	"copy":    {},
	"test":    {},
}

// Validate reports whether the operation is well-formed per RFC 6902.
func (op PatchOp) Validate() error {
	if _, ok := patchOps[op.Op]; !ok {
		return fmt.Errorf("unknown patch op %q", op.Op)
	}
	// "" is the whole-document pointer and is valid for every op.
	switch op.Op {
	case "add", "replace", "test":
		if op.Value == nil {
			return fmt.Errorf("patch op %q requires a value", op.Op)
		}
	case "move", "copy":
		if op.From == "" {
			return fmt.Errorf("patch op %q requires a from pointer", op.Op)
		}
	}
	return nil
}

// ApplyPatch applies the ordered operations to the prior snapshot document
// and returns the subsequent snapshot. The input document is not modified.
func ApplyPatch(snapshot json.RawMessage, ops []PatchOp) (json.RawMessage, error) {
	if len(ops) == 0 {
		return snapshot, nil
	}
	for i, op := range ops {
		if err := op.Validate(); err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
	}
	raw, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	patch, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	out, err := patch.Apply(snapshot)
	if err != nil {
		return nil, fmt.Errorf("apply patch: %w", err)
	}
	return out, nil
}

// EqualDocuments reports whether the two JSON documents are structurally
// equal, the check consumers use to confirm a delta sequence reproduced a
// snapshot.
func EqualDocuments(a, b json.RawMessage) bool {
	return jsonpatch.Equal(a, b)
}
