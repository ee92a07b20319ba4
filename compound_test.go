package measurement

import (
	"errors"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/go-cmp/cmp"
)

func compoundSpec(t *testing.T, kind FieldKind) *CompoundSpec {
	t.Helper()
	desc, err := DefaultRegistry().Lookup(kind)
	if err != nil {
		t.Fatalf("lookup %s failed: %v", kind, err)
	}
	return desc.Compound
}

func mustItem(t *testing.T, spec *CompoundSpec, data Item) CompoundItem {
	t.Helper()
	item, err := NewCompoundItem(spec, data)
	if err != nil {
		t.Fatalf("item %v rejected: %v", data, err)
	}
	return item
}

func TestCompoundCollection_RenderProducts(t *testing.T) {
	spec := compoundSpec(t, Product)
	collection := NewCompoundCollection(spec)

	if got := collection.Add(mustItem(t, spec, Item{"id": "P1", "name": "Shoe"})); got != 1 {
		t.Fatalf("expected index 1, got %d", got)
	}
	if got := collection.Add(mustItem(t, spec, Item{"id": "P2", "name": "Hat"})); got != 2 {
		t.Fatalf("expected index 2, got %d", got)
	}

	want := map[string]string{
		"pr1id": "P1",
		"pr1nm": "Shoe",
		"pr2id": "P2",
		"pr2nm": "Hat",
	}
	if diff := cmp.Diff(want, collection.Render()); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
	if collection.Kind() != Product || collection.Len() != 2 {
		t.Fatalf("unexpected collection state: kind=%s len=%d", collection.Kind(), collection.Len())
	}
}

func TestCompoundCollection_RenderValues(t *testing.T) {
	spec := compoundSpec(t, Product)
	collection := NewCompoundCollection(spec)

	price, err := ParseAmount("19.90")
	if err != nil {
		t.Fatalf("parse amount failed: %v", err)
	}
	collection.Add(mustItem(t, spec, Item{
		"sku":                "P1",
		"price":              price,
		"quantity":           2,
		"custom_dimension_3": "blue",
		"custom_metric_1":    1.5,
	}))

	want := map[string]string{
		"pr1id":  "P1",
		"pr1pr":  "19.90",
		"pr1qt":  "2",
		"pr1cd3": "blue",
		"pr1cm1": "1.5",
	}
	if diff := cmp.Diff(want, collection.Render()); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestNewCompoundItem_ParsesStringPrice(t *testing.T) {
	spec := compoundSpec(t, Product)
	item := mustItem(t, spec, Item{"id": "P1", "price": " 19.90 "})
	if len(item.fields) != 2 {
		t.Fatalf("expected 2 sub-fields, got %d", len(item.fields))
	}
	if _, ok := item.fields[1].value.(*apd.Decimal); !ok {
		t.Fatalf("expected price parsed as an exact amount, got %T", item.fields[1].value)
	}

	collection := NewCompoundCollection(spec)
	collection.Add(item)
	want := map[string]string{"pr1id": "P1", "pr1pr": "19.90"}
	if diff := cmp.Diff(want, collection.Render()); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestCompoundCollection_ImpressionIndexPerList(t *testing.T) {
	spec := compoundSpec(t, ProductImpression)
	collection := NewCompoundCollection(spec)

	indexes := []int{
		collection.Add(mustItem(t, spec, Item{"id": "A", "list": 1})),
		collection.Add(mustItem(t, spec, Item{"id": "B", "list": 2})),
		collection.Add(mustItem(t, spec, Item{"id": "C", "list": "1"})),
		collection.Add(mustItem(t, spec, Item{"id": "D"})),
	}
	if diff := cmp.Diff([]int{1, 1, 2, 3}, indexes); diff != "" {
		t.Fatalf("index mismatch (-want +got):\n%s", diff)
	}

	want := map[string]string{
		"il1pi1id": "A",
		"il2pi1id": "B",
		"il1pi2id": "C",
		"il1pi3id": "D",
	}
	if diff := cmp.Diff(want, collection.Render()); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestCompoundCollection_EmptyItemKeepsIndex(t *testing.T) {
	spec := compoundSpec(t, Promotion)
	collection := NewCompoundCollection(spec)

	collection.Add(mustItem(t, spec, Item{}))
	collection.Add(mustItem(t, spec, Item{"id": "SUMMER", "creative": "banner"}))

	want := map[string]string{
		"promo2id": "SUMMER",
		"promo2cr": "banner",
	}
	if diff := cmp.Diff(want, collection.Render()); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestNewCompoundItem_Rejects(t *testing.T) {
	cases := []struct {
		name     string
		kind     FieldKind
		data     Item
		subField string
	}{
		{"unknown sub-field", Product, Item{"colour": "red"}, "colour"},
		{"custom dimension on promotion", Promotion, Item{"custom_dimension_1": "x"}, "custom_dimension_1"},
		{"custom index out of range", Product, Item{"custom_dimension_201": "x"}, "custom_dimension_201"},
		{"quantity on impression", ProductImpression, Item{"quantity": 1}, "quantity"},
		{"list zero", ProductImpression, Item{"id": "A", "list": 0}, "list"},
		{"list fraction", ProductImpression, Item{"id": "A", "list": 1.5}, "list"},
		{"list text", ProductImpression, Item{"id": "A", "list": "first"}, "list"},
		{"price text", Product, Item{"id": "P1", "price": "cheap"}, "price"},
		{"price infinite", Product, Item{"id": "P1", "price": "Infinity"}, "price"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCompoundItem(compoundSpec(t, tc.kind), tc.data)
			var invalid *InvalidItemError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidItemError, got %v", err)
			}
			if invalid.Field != tc.kind || invalid.SubField != tc.subField {
				t.Fatalf("unexpected error fields: %+v", invalid)
			}
		})
	}
}

func TestNewCompoundItem_RejectsAliasDuplicate(t *testing.T) {
	_, err := NewCompoundItem(compoundSpec(t, Product), Item{"id": "P1", "sku": "P1"})
	var invalid *InvalidItemError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidItemError, got %v", err)
	}
}

func TestNewCompoundItem_SubFieldOrder(t *testing.T) {
	item := mustItem(t, compoundSpec(t, Product), Item{
		"custom_metric_2":    1,
		"position":           4,
		"custom_dimension_9": "x",
		"id":                 "P1",
	})
	var suffixes []string
	for _, field := range item.fields {
		suffixes = append(suffixes, field.suffix)
	}
	if diff := cmp.Diff([]string{"id", "ps", "cd9", "cm2"}, suffixes); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if item.Len() != 4 {
		t.Fatalf("expected 4 sub-fields, got %d", item.Len())
	}
}
