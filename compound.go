package measurement

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// maxCustomIndex is the highest custom dimension/metric slot the protocol accepts.
const maxCustomIndex = 200

// SubField maps an item key to the suffix used on the wire. Monetary string
// values are parsed as exact amounts.
type SubField struct {
	Name     string
	Suffix   string
	Aliases  []string
	Monetary bool
}

// CompoundSpec describes a repeatable field. Base may contain a %d verb that
// is filled with the item's list number when ListField is set.
type CompoundSpec struct {
	Kind          FieldKind
	Base          string
	SubFields     []SubField
	CustomIndexed bool
	ListField     string
}

// WireKey builds the fully qualified key for a sub-field of the item at the
// given 1-based index.
func (s *CompoundSpec) WireKey(list, index int, suffix string) string {
	base := s.Base
	if s.ListField != "" {
		base = fmt.Sprintf(s.Base, list)
	}
	return base + strconv.Itoa(index) + suffix
}

func (s *CompoundSpec) subField(name string) (SubField, int, bool) {
	for i, field := range s.SubFields {
		if field.Name == name {
			return field, i, true
		}
		for _, alias := range field.Aliases {
			if alias == name {
				return field, i, true
			}
		}
	}
	return SubField{}, 0, false
}

// Item is the caller-facing data for one compound entry, keyed by sub-field
// name ("id", "name", "price", "custom_dimension_3", ...).
type Item map[string]any

type itemField struct {
	suffix string
	order  int
	value  any
}

// CompoundItem is one entry of a compound collection, its sub-fields kept in
// catalog order.
type CompoundItem struct {
	list   int
	fields []itemField
}

// NewCompoundItem validates data against spec and builds an item.
func NewCompoundItem(spec *CompoundSpec, data Item) (CompoundItem, error) {
	item := CompoundItem{list: 1}
	seen := map[string]string{}
	for name, value := range data {
		if spec.ListField != "" && name == spec.ListField {
			list, err := listNumber(value)
			if err != nil {
				return CompoundItem{}, &InvalidItemError{Field: spec.Kind, SubField: name, Reason: err.Error()}
			}
			item.list = list
			continue
		}
		if field, order, ok := spec.subField(name); ok {
			if other, dup := seen[field.Suffix]; dup {
				return CompoundItem{}, &InvalidItemError{Field: spec.Kind, SubField: name, Reason: fmt.Sprintf("duplicates %q", other)}
			}
			seen[field.Suffix] = name
			if field.Monetary {
				if raw, isString := value.(string); isString {
					amount, err := ParseAmount(strings.TrimSpace(raw))
					if err != nil {
						return CompoundItem{}, &InvalidItemError{Field: spec.Kind, SubField: name, Reason: "is not an amount"}
					}
					value = amount
				}
			}
			item.fields = append(item.fields, itemField{suffix: field.Suffix, order: order, value: value})
			continue
		}
		if spec.CustomIndexed {
			if suffix, slot, ok := customSuffix(name); ok {
				item.fields = append(item.fields, itemField{suffix: suffix, order: len(spec.SubFields) + slot, value: value})
				continue
			}
		}
		return CompoundItem{}, &InvalidItemError{Field: spec.Kind, SubField: name, Reason: "is not defined"}
	}
	sort.Slice(item.fields, func(i, j int) bool {
		return item.fields[i].order < item.fields[j].order
	})
	return item, nil
}

// Len returns the number of sub-fields set on the item.
func (c CompoundItem) Len() int {
	return len(c.fields)
}

// customSuffix maps custom_dimension_N / custom_metric_N to cdN / cmN. Metrics
// sort after dimensions.
func customSuffix(name string) (string, int, bool) {
	var prefix, raw string
	var offset int
	switch {
	case strings.HasPrefix(name, "custom_dimension_"):
		prefix, raw = "cd", strings.TrimPrefix(name, "custom_dimension_")
	case strings.HasPrefix(name, "custom_metric_"):
		prefix, raw, offset = "cm", strings.TrimPrefix(name, "custom_metric_"), maxCustomIndex
	default:
		return "", 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxCustomIndex {
		return "", 0, false
	}
	return prefix + strconv.Itoa(n), offset + n, true
}

func listNumber(value any) (int, error) {
	var n int
	switch node := value.(type) {
	case int:
		n = node
	case int64:
		n = int(node)
	case float64:
		n = int(node)
		if float64(n) != node {
			return 0, fmt.Errorf("must be a whole number")
		}
	case string:
		parsed, err := strconv.Atoi(node)
		if err != nil {
			return 0, fmt.Errorf("must be a whole number")
		}
		n = parsed
	default:
		return 0, fmt.Errorf("must be a whole number")
	}
	if n < 1 || n > maxCustomIndex {
		return 0, fmt.Errorf("must be between 1 and %d", maxCustomIndex)
	}
	return n, nil
}

// CompoundCollection accumulates items of one compound kind. Items keep their
// insertion order; an item's index never changes once added.
type CompoundCollection struct {
	spec  *CompoundSpec
	items []CompoundItem
}

// NewCompoundCollection creates an empty collection for spec.
func NewCompoundCollection(spec *CompoundSpec) *CompoundCollection {
	return &CompoundCollection{spec: spec}
}

// Kind returns the field kind the collection holds.
func (c *CompoundCollection) Kind() FieldKind {
	return c.spec.Kind
}

// Add appends an item and returns its 1-based index. For list-scoped
// compounds the index counts items within the same list.
func (c *CompoundCollection) Add(item CompoundItem) int {
	c.items = append(c.items, item)
	if c.spec.ListField == "" {
		return len(c.items)
	}
	index := 0
	for _, existing := range c.items {
		if existing.list == item.list {
			index++
		}
	}
	return index
}

// Len returns the number of items added so far.
func (c *CompoundCollection) Len() int {
	return len(c.items)
}

// Render flattens every item into wire pairs. Items without sub-fields keep
// their index but contribute nothing.
func (c *CompoundCollection) Render() map[string]string {
	out := map[string]string{}
	perList := map[int]int{}
	for i, item := range c.items {
		index := i + 1
		if c.spec.ListField != "" {
			perList[item.list]++
			index = perList[item.list]
		}
		for _, field := range item.fields {
			out[c.spec.WireKey(item.list, index, field.suffix)] = FormatValue(field.value)
		}
	}
	return out
}
