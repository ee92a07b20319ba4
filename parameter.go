package measurement

import (
	"fmt"
	"math"
	"strconv"

	"github.com/cockroachdb/apd/v3"
)

// SingleParameter is a scalar field bound to its wire key.
type SingleParameter struct {
	name  string
	value any
}

// NewSingleParameter creates an empty parameter for a wire key.
func NewSingleParameter(wireKey string) *SingleParameter {
	return &SingleParameter{name: wireKey}
}

// SetValue stores v verbatim. Conversion to text happens when the payload is
// rendered.
func (p *SingleParameter) SetValue(v any) {
	p.value = v
}

// Name returns the wire key.
func (p *SingleParameter) Name() string {
	return p.name
}

// Value returns the stored value.
func (p *SingleParameter) Value() any {
	return p.value
}

// String returns the wire representation of the value.
func (p *SingleParameter) String() string {
	return FormatValue(p.value)
}

// FormatValue renders a parameter value the way the collection endpoint
// expects it.
func FormatValue(v any) string {
	switch node := v.(type) {
	case nil:
		return ""
	case string:
		return node
	case bool:
		if node {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(node)
	case int8:
		return strconv.FormatInt(int64(node), 10)
	case int16:
		return strconv.FormatInt(int64(node), 10)
	case int32:
		return strconv.FormatInt(int64(node), 10)
	case int64:
		return strconv.FormatInt(node, 10)
	case uint:
		return strconv.FormatUint(uint64(node), 10)
	case uint8:
		return strconv.FormatUint(uint64(node), 10)
	case uint16:
		return strconv.FormatUint(uint64(node), 10)
	case uint32:
		return strconv.FormatUint(uint64(node), 10)
	case uint64:
		return strconv.FormatUint(node, 10)
	case float32:
		return formatFloat(float64(node), 32)
	case float64:
		return formatFloat(node, 64)
	case apd.Decimal:
		return node.Text('f')
	case *apd.Decimal:
		if node == nil {
			return ""
		}
		return node.Text('f')
	case fmt.Stringer:
		return node.String()
	default:
		return fmt.Sprint(node)
	}
}

func formatFloat(f float64, bits int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

// ParseAmount parses a monetary amount such as "19.99" exactly.
func ParseAmount(s string) (*apd.Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.Form != apd.Finite {
		return nil, fmt.Errorf("invalid amount %q: not a finite number", s)
	}
	return d, nil
}
