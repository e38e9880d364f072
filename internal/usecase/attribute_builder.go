package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/parentrebuild/backend/internal/domain"
)

// Parentage levels
const (
	ParentageChild  = "child"
	ParentageParent = "parent"
)

// Fixed compliance values shared by parents and children
const (
	conditionNew       = "new_new"
	dgHazNotApplicable = "not_applicable"
	childRelationship  = "variation"
	patchOpReplace     = "replace"
	patchPathRoot      = "/"
)

// ChildInput carries the per-variation values for a child listing
type ChildInput struct {
	ParentSKU string
	Title     string
	Variation domain.Variation
	Content   domain.ListingContent
	Price     decimal.Decimal
	SwatchURL string
}

// ParentInput carries the values for a parent listing
type ParentInput struct {
	Title   string
	Content domain.ListingContent
}

// AttributeBuilder assembles attribute sets and wraps them into feed messages.
// It holds only immutable defaults; every method is a pure function of its inputs.
type AttributeBuilder struct {
	defaults ListingDefaults
}

// NewAttributeBuilder creates a builder bound to the operator's listing defaults
func NewAttributeBuilder(defaults ListingDefaults) *AttributeBuilder {
	return &AttributeBuilder{defaults: defaults}
}

// ChildAttributes builds the full attribute set of a child listing.
// generic_keyword is never set on children; style is omitted when the sleeve is empty.
func (b *AttributeBuilder) ChildAttributes(in ChildInput) domain.AttributeSet {
	d := b.defaults
	attrs := b.commonAttributes(in.Title, in.Content)

	attrs["parentage_level"] = []domain.Instance{b.marketplaceValue(ParentageChild)}
	attrs["child_parent_sku_relationship"] = []domain.Instance{{
		"child_relationship_type": childRelationship,
		"parent_sku":              in.ParentSKU,
		"marketplace_id":          d.MarketplaceID,
	}}
	attrs["size"] = []domain.Instance{b.textValue(in.Variation.Size)}
	attrs["color"] = []domain.Instance{b.textValue(in.Variation.Color)}
	if in.Variation.Sleeve != "" {
		attrs["style"] = []domain.Instance{b.textValue(in.Variation.Sleeve)}
	}

	price := in.Price.InexactFloat64()
	attrs["list_price"] = []domain.Instance{{
		"value":          price,
		"currency":       d.Currency,
		"marketplace_id": d.MarketplaceID,
	}}
	attrs["purchasable_offer"] = []domain.Instance{{
		"currency":       d.Currency,
		"marketplace_id": d.MarketplaceID,
		"our_price": []map[string]any{{
			"schedule": []map[string]any{{"value_with_tax": price}},
		}},
	}}

	if in.SwatchURL != "" {
		attrs["swatch_product_image_locator"] = []domain.Instance{{
			"media_location": in.SwatchURL,
			"marketplace_id": d.MarketplaceID,
		}}
	}
	return attrs
}

// ParentAttributes builds the attribute set of a parent listing. Compliance fields are
// mirrored from the children so per-product-type validation accepts a parent-only update.
func (b *AttributeBuilder) ParentAttributes(in ParentInput) domain.AttributeSet {
	attrs := b.commonAttributes(in.Title, in.Content)
	attrs["parentage_level"] = []domain.Instance{b.marketplaceValue(ParentageParent)}
	if in.Content.GenericKeywords != "" {
		attrs["generic_keyword"] = []domain.Instance{b.textValue(in.Content.GenericKeywords)}
	}
	return attrs
}

// commonAttributes are the identity, copy and compliance fields set on every listing
func (b *AttributeBuilder) commonAttributes(title string, content domain.ListingContent) domain.AttributeSet {
	d := b.defaults
	attrs := domain.AttributeSet{
		"item_name":           {b.textValue(title)},
		"brand":               {b.textValue(d.Brand)},
		"item_type_keyword":   {b.marketplaceValue(d.ItemTypeKeyword)},
		"product_description": {b.textValue(content.Description)},
		"variation_theme":     {{"name": d.VariationTheme, "marketplace_id": d.MarketplaceID}},
		"condition_type":      {b.marketplaceValue(conditionNew)},
		"batteries_required":  {{"value": false, "marketplace_id": d.MarketplaceID}},
	}
	attrs["supplier_declared_dg_hz_regulation"] = []domain.Instance{b.marketplaceValue(dgHazNotApplicable)}

	var bullets []domain.Instance
	for _, bullet := range content.Bullets {
		if bullet != "" {
			bullets = append(bullets, b.textValue(bullet))
		}
	}
	if len(bullets) > 0 {
		attrs["bullet_point"] = bullets
	}

	if d.CountryOfOrigin != "" {
		attrs["country_of_origin"] = []domain.Instance{b.marketplaceValue(d.CountryOfOrigin)}
	}
	if d.FabricType != "" {
		attrs["fabric_type"] = []domain.Instance{b.textValue(d.FabricType)}
	}
	if d.CareInstructions != "" {
		attrs["care_instructions"] = []domain.Instance{b.textValue(d.CareInstructions)}
	}
	if d.Department != "" {
		attrs["department"] = []domain.Instance{b.textValue(d.Department)}
	}
	if d.MainImageURL != "" {
		attrs["main_product_image_locator"] = []domain.Instance{{
			"media_location": d.MainImageURL,
			"marketplace_id": d.MarketplaceID,
		}}
	}

	pkg := d.Package
	attrs["item_package_dimensions"] = []domain.Instance{{
		"length":         map[string]any{"value": pkg.Length, "unit": pkg.DimensionUnit},
		"width":          map[string]any{"value": pkg.Width, "unit": pkg.DimensionUnit},
		"height":         map[string]any{"value": pkg.Height, "unit": pkg.DimensionUnit},
		"marketplace_id": d.MarketplaceID,
	}}
	attrs["item_package_weight"] = []domain.Instance{{
		"value":          pkg.Weight,
		"unit":           pkg.WeightUnit,
		"marketplace_id": d.MarketplaceID,
	}}
	return attrs
}

func (b *AttributeBuilder) marketplaceValue(value any) domain.Instance {
	return domain.Instance{"value": value, "marketplace_id": b.defaults.MarketplaceID}
}

func (b *AttributeBuilder) textValue(value string) domain.Instance {
	return domain.Instance{
		"value":          value,
		"language_tag":   b.defaults.LanguageTag,
		"marketplace_id": b.defaults.MarketplaceID,
	}
}

// DeleteMessage builds a DELETE message; it never carries attributes
func (b *AttributeBuilder) DeleteMessage(sku string) domain.Message {
	return domain.Message{
		SKU:           sku,
		OperationType: domain.OperationDelete,
		ProductType:   b.defaults.ProductType,
	}
}

// UpdateMessage wraps attributes flatly for a full-listing UPDATE
func (b *AttributeBuilder) UpdateMessage(sku string, attrs domain.AttributeSet) domain.Message {
	return domain.Message{
		SKU:           sku,
		OperationType: domain.OperationUpdate,
		ProductType:   b.defaults.ProductType,
		Requirements:  domain.RequirementsListing,
		Attributes:    attrs,
	}
}

// PatchMessage wraps attributes in a single replace patch with an array value
func (b *AttributeBuilder) PatchMessage(sku string, attrs domain.AttributeSet) domain.Message {
	return domain.Message{
		SKU:           sku,
		OperationType: domain.OperationPatch,
		ProductType:   b.defaults.ProductType,
		Patches: []domain.Patch{{
			Op:    patchOpReplace,
			Path:  patchPathRoot,
			Value: []domain.PatchValue{{Attributes: attrs}},
		}},
	}
}

// Wrap wraps attributes in the wire format selected by schema
func (b *AttributeBuilder) Wrap(schema Schema, sku string, attrs domain.AttributeSet) domain.Message {
	if schema == SchemaPatch {
		return b.PatchMessage(sku, attrs)
	}
	return b.UpdateMessage(sku, attrs)
}

// OperationFor returns the operation type a schema produces
func OperationFor(schema Schema) domain.OperationType {
	if schema == SchemaPatch {
		return domain.OperationPatch
	}
	return domain.OperationUpdate
}
