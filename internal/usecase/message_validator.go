package usecase

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/parentrebuild/backend/internal/domain"
)

// RequiredAttributes must be present on every UPDATE or PATCH message
var RequiredAttributes = []string{"item_name", "brand", "item_type_keyword", "product_description"}

var requiredMessageKeys = []string{"messageId", "sku", "operationType", "productType"}

// MessageValidator checks feed batches against the listings feed schema rules.
// Validation is local and collects every problem instead of stopping at the first.
type MessageValidator struct{}

// NewMessageValidator creates a validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// Validate checks a typed batch. The batch is checked in its wire form so that the
// result matches what would be uploaded.
func (v *MessageValidator) Validate(batch domain.Batch) []string {
	raw, err := json.Marshal(batch.Messages)
	if err != nil {
		return []string{fmt.Sprintf("%s: messages cannot be serialized: %v", batch.Label, err)}
	}
	var messages []map[string]any
	if err := json.Unmarshal(raw, &messages); err != nil {
		return []string{fmt.Sprintf("%s: messages cannot be decoded: %v", batch.Label, err)}
	}
	return v.ValidateRaw(batch.Label, batch.Operation, messages)
}

// ValidateRaw checks decoded wire messages declared to share one operation type.
// An empty result means the batch is safe to submit.
func (v *MessageValidator) ValidateRaw(label string, operation domain.OperationType, messages []map[string]any) []string {
	problems := []string{}
	if len(messages) == 0 {
		return append(problems, fmt.Sprintf("%s: batch has no messages", label))
	}

	seen := make(map[string]int, len(messages))
	for i, msg := range messages {
		prefix := fmt.Sprintf("%s message %d", label, i+1)
		sku, _ := msg["sku"].(string)
		if sku != "" {
			prefix = fmt.Sprintf("%s (%s)", prefix, sku)
			if first, dup := seen[sku]; dup {
				problems = append(problems, fmt.Sprintf("%s: duplicate sku, first seen in message %d", prefix, first))
			} else {
				seen[sku] = i + 1
			}
		}

		for _, key := range requiredMessageKeys {
			if isBlank(msg[key]) {
				problems = append(problems, fmt.Sprintf("%s: missing %q", prefix, key))
			}
		}

		op, _ := msg["operationType"].(string)
		if op != "" && domain.OperationType(op) != operation {
			problems = append(problems, fmt.Sprintf("%s: operationType %q does not match batch type %q", prefix, op, operation))
		}

		switch domain.OperationType(op) {
		case domain.OperationDelete:
			// DELETE carries no attributes
			if _, ok := msg["patches"]; ok {
				problems = append(problems, fmt.Sprintf("%s: DELETE must not carry \"patches\"", prefix))
			}
		case domain.OperationPatch:
			if _, ok := msg["attributes"]; ok {
				problems = append(problems, fmt.Sprintf("%s: PATCH must not carry flat \"attributes\"", prefix))
			}
			problems = append(problems, v.checkPatch(prefix, msg)...)
		case domain.OperationUpdate:
			if _, ok := msg["patches"]; ok {
				problems = append(problems, fmt.Sprintf("%s: UPDATE must not carry \"patches\"", prefix))
			}
			attrs, ok := msg["attributes"].(map[string]any)
			if !ok || len(attrs) == 0 {
				problems = append(problems, fmt.Sprintf("%s: \"attributes\" must be a non-empty object", prefix))
				continue
			}
			problems = append(problems, checkAttributes(prefix, attrs)...)
		}
	}
	return problems
}

func (v *MessageValidator) checkPatch(prefix string, msg map[string]any) []string {
	var problems []string
	patches, ok := msg["patches"].([]any)
	if !ok || len(patches) == 0 {
		return append(problems, fmt.Sprintf("%s: missing \"patches\"", prefix))
	}
	if len(patches) != 1 {
		problems = append(problems, fmt.Sprintf("%s: expected exactly 1 patch, got %d", prefix, len(patches)))
	}

	patch, ok := patches[0].(map[string]any)
	if !ok {
		return append(problems, fmt.Sprintf("%s: patch must be an object", prefix))
	}
	if op, _ := patch["op"].(string); op != patchOpReplace {
		problems = append(problems, fmt.Sprintf("%s: patch op must be %q, got %q", prefix, patchOpReplace, op))
	}
	if path, _ := patch["path"].(string); path != patchPathRoot {
		problems = append(problems, fmt.Sprintf("%s: patch path must be %q, got %q", prefix, patchPathRoot, path))
	}

	values, ok := patch["value"].([]any)
	if !ok {
		if _, isObject := patch["value"].(map[string]any); isObject {
			return append(problems, fmt.Sprintf("%s: patch value must be an array, got a bare object", prefix))
		}
		return append(problems, fmt.Sprintf("%s: patch value must be a non-empty array", prefix))
	}
	if len(values) == 0 {
		return append(problems, fmt.Sprintf("%s: patch value must be a non-empty array", prefix))
	}

	first, _ := values[0].(map[string]any)
	attrs, ok := first["attributes"].(map[string]any)
	if !ok || len(attrs) == 0 {
		return append(problems, fmt.Sprintf("%s: patch value[0].attributes must be a non-empty object", prefix))
	}
	return append(problems, checkAttributes(prefix, attrs)...)
}

// checkAttributes verifies required attributes and rejects empty instance lists
func checkAttributes(prefix string, attrs map[string]any) []string {
	var problems []string
	for _, name := range RequiredAttributes {
		if _, ok := attrs[name]; !ok {
			problems = append(problems, fmt.Sprintf("%s: missing required attribute %q", prefix, name))
		}
	}
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		instances, ok := attrs[name].([]any)
		if !ok || len(instances) == 0 {
			problems = append(problems, fmt.Sprintf("%s: attribute %q must be a non-empty array", prefix, name))
		}
	}
	return problems
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	}
	return false
}
