package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parentrebuild/backend/internal/domain"
)

func validAttrs() map[string]any {
	return map[string]any{
		"item_name":           []any{map[string]any{"value": "Taco"}},
		"brand":               []any{map[string]any{"value": "Nofo Vibes"}},
		"item_type_keyword":   []any{map[string]any{"value": "bodysuits"}},
		"product_description": []any{map[string]any{"value": "Soft"}},
	}
}

func patchMessage(value any) map[string]any {
	return map[string]any{
		"messageId":     float64(1),
		"sku":           "TACO-PARENT",
		"operationType": "PATCH",
		"productType":   "SHIRT",
		"patches": []any{map[string]any{
			"op":    "replace",
			"path":  "/",
			"value": value,
		}},
	}
}

func TestMessageValidator_ValidPlanBatches(t *testing.T) {
	validator := NewMessageValidator()
	builder := NewAttributeBuilder(testDefaults())
	attrs := builder.ChildAttributes(childInput("0-3M White Short Sleeve"))

	batches := []domain.Batch{
		{Label: "delete", Operation: domain.OperationDelete, Messages: []domain.Message{builder.DeleteMessage("A"), builder.DeleteMessage("B")}},
		{Label: "create", Operation: domain.OperationUpdate, Messages: []domain.Message{builder.UpdateMessage("A", attrs)}},
		{Label: "parent", Operation: domain.OperationPatch, Messages: []domain.Message{builder.PatchMessage("P", attrs)}},
	}

	for _, batch := range batches {
		assert.Empty(t, validator.Validate(batch), batch.Label)
	}
}

func TestMessageValidator_BareObjectPatchValue(t *testing.T) {
	validator := NewMessageValidator()

	bare := patchMessage(map[string]any{"attributes": validAttrs()})
	problems := validator.ValidateRaw("parent", domain.OperationPatch, []map[string]any{bare})

	assert.Len(t, problems, 1)
	assert.Contains(t, problems[0], "bare object")

	wrapped := patchMessage([]any{map[string]any{"attributes": validAttrs()}})
	assert.Empty(t, validator.ValidateRaw("parent", domain.OperationPatch, []map[string]any{wrapped}))
}

func TestMessageValidator_AccumulatesAllProblems(t *testing.T) {
	validator := NewMessageValidator()

	msg := patchMessage([]any{map[string]any{"attributes": map[string]any{
		"item_name": []any{},
	}}})
	msg["productType"] = ""
	patch := msg["patches"].([]any)[0].(map[string]any)
	patch["op"] = "add"
	patch["path"] = "/attributes"

	problems := validator.ValidateRaw("parent", domain.OperationPatch, []map[string]any{msg})

	// productType, op, path, three missing required attributes, one empty array
	assert.Len(t, problems, 7)
}

func TestMessageValidator_UpdateRules(t *testing.T) {
	validator := NewMessageValidator()

	tests := []struct {
		name     string
		message  map[string]any
		expected int
	}{
		{
			name: "valid",
			message: map[string]any{
				"messageId": float64(1), "sku": "A", "operationType": "UPDATE", "productType": "SHIRT",
				"attributes": validAttrs(),
			},
			expected: 0,
		},
		{
			name: "missing attributes",
			message: map[string]any{
				"messageId": float64(1), "sku": "A", "operationType": "UPDATE", "productType": "SHIRT",
			},
			expected: 1,
		},
		{
			name: "missing brand",
			message: func() map[string]any {
				attrs := validAttrs()
				delete(attrs, "brand")
				return map[string]any{
					"messageId": float64(1), "sku": "A", "operationType": "UPDATE", "productType": "SHIRT",
					"attributes": attrs,
				}
			}(),
			expected: 1,
		},
		{
			name: "carries patches",
			message: map[string]any{
				"messageId": float64(1), "sku": "A", "operationType": "UPDATE", "productType": "SHIRT",
				"attributes": validAttrs(),
				"patches":    []any{map[string]any{"op": "add"}},
			},
			expected: 1,
		},
		{
			name: "missing top-level keys",
			message: map[string]any{
				"operationType": "UPDATE", "attributes": validAttrs(),
			},
			expected: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := validator.ValidateRaw("create", domain.OperationUpdate, []map[string]any{tt.message})
			assert.Len(t, problems, tt.expected, "%v", problems)
		})
	}
}

func TestMessageValidator_BatchLevelChecks(t *testing.T) {
	validator := NewMessageValidator()

	assert.Len(t, validator.Validate(domain.Batch{Label: "empty", Operation: domain.OperationDelete}), 1)

	mixed := []map[string]any{
		{"messageId": float64(1), "sku": "A", "operationType": "DELETE", "productType": "SHIRT"},
		{"messageId": float64(2), "sku": "A", "operationType": "DELETE", "productType": "SHIRT"},
		{"messageId": float64(3), "sku": "B", "operationType": "UPDATE", "productType": "SHIRT", "attributes": validAttrs()},
	}
	problems := validator.ValidateRaw("delete", domain.OperationDelete, mixed)

	assert.Len(t, problems, 2)
	assert.Contains(t, problems[0], "duplicate sku")
	assert.Contains(t, problems[1], "does not match")
}

func TestMessageValidator_DeleteExemptFromAttributes(t *testing.T) {
	validator := NewMessageValidator()
	msg := map[string]any{"messageId": float64(1), "sku": "A", "operationType": "DELETE", "productType": "SHIRT"}

	assert.Empty(t, validator.ValidateRaw("delete", domain.OperationDelete, []map[string]any{msg}))
}

func TestMessageValidator_RejectsMixedWireFormats(t *testing.T) {
	validator := NewMessageValidator()

	patch := patchMessage([]any{map[string]any{"attributes": validAttrs()}})
	patch["attributes"] = validAttrs()
	problems := validator.ValidateRaw("parent", domain.OperationPatch, []map[string]any{patch})
	assert.Len(t, problems, 1)
	assert.Contains(t, problems[0], "flat \"attributes\"")

	del := map[string]any{
		"messageId": float64(1), "sku": "A", "operationType": "DELETE", "productType": "SHIRT",
		"patches": []any{map[string]any{"op": "replace", "path": "/"}},
	}
	problems = validator.ValidateRaw("delete", domain.OperationDelete, []map[string]any{del})
	assert.Len(t, problems, 1)
	assert.Contains(t, problems[0], "\"patches\"")
}
