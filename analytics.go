package measurement

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// requiredKeys are the wire keys every hit must carry, whatever its type.
var requiredKeys = []string{"v", "tid", "cid", "t"}

// Analytics accumulates the fields of a hit and sends it. State is kept
// across sends until Reset is called. An Analytics is not safe for
// concurrent use.
type Analytics struct {
	cfg       *Config
	registry  *Registry
	transport Transport

	singles   map[string]*SingleParameter
	compounds map[FieldKind]*CompoundCollection
}

// New creates an Analytics from cfg. A nil cfg means DefaultConfig().
func New(cfg *Config) (*Analytics, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	a := &Analytics{
		cfg:       cfg,
		registry:  DefaultRegistry(),
		transport: cfg.Transport,
	}
	if a.transport == nil {
		a.transport = NewHTTPTransport(cfg)
	}
	if err := a.Reset(); err != nil {
		return nil, err
	}
	return a, nil
}

// Reset drops every accumulated field and re-applies the configured defaults.
func (a *Analytics) Reset() error {
	a.singles = map[string]*SingleParameter{}
	a.compounds = map[FieldKind]*CompoundCollection{}

	kinds := make([]string, 0, len(a.cfg.Defaults))
	for kind := range a.cfg.Defaults {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		if err := a.Set(FieldKind(kind), a.cfg.Defaults[FieldKind(kind)]); err != nil {
			return fmt.Errorf("apply default: %w", err)
		}
	}
	return nil
}

// Set stores value for a single field, overwriting any previous value.
func (a *Analytics) Set(kind FieldKind, value any) error {
	desc, err := a.registry.Lookup(kind)
	if err != nil {
		return err
	}
	if value == nil {
		return &MissingArgumentError{Operation: "set" + string(kind)}
	}
	if desc.Shape != ShapeSingle {
		return &UnknownFieldError{Field: kind, Reason: "is a compound field, use Add"}
	}
	a.setWire(desc.WireKey, value)
	return nil
}

func (a *Analytics) setWire(wireKey string, value any) {
	param, ok := a.singles[wireKey]
	if !ok {
		param = NewSingleParameter(wireKey)
		a.singles[wireKey] = param
	}
	param.SetValue(value)
}

// Add appends an item to a compound field and returns its 1-based index.
func (a *Analytics) Add(kind FieldKind, item Item) (int, error) {
	desc, err := a.registry.Lookup(kind)
	if err != nil {
		return 0, err
	}
	if item == nil {
		return 0, &MissingArgumentError{Operation: "add" + string(kind)}
	}
	if desc.Shape != ShapeCompound {
		return 0, &UnknownFieldError{Field: kind, Reason: "is a single field, use Set"}
	}
	built, err := NewCompoundItem(desc.Compound, item)
	if err != nil {
		return 0, err
	}
	collection, ok := a.compounds[kind]
	if !ok {
		collection = NewCompoundCollection(desc.Compound)
		a.compounds[kind] = collection
	}
	return collection.Add(built), nil
}

// SetProductActionTo sets the product action from a shorthand such as
// "purchase" or "CheckoutOption".
func (a *Analytics) SetProductActionTo(name string) error {
	action, err := a.registry.ProductAction(name)
	if err != nil {
		return err
	}
	return a.Set(ProductAction, action)
}

// SetCustomDimension sets the hit-level custom dimension cd<index>.
func (a *Analytics) SetCustomDimension(index int, value any) error {
	return a.setIndexed("cd", "SetCustomDimension", index, value)
}

// SetCustomMetric sets the hit-level custom metric cm<index>.
func (a *Analytics) SetCustomMetric(index int, value any) error {
	return a.setIndexed("cm", "SetCustomMetric", index, value)
}

// SetImpressionListName names impression list il<index>.
func (a *Analytics) SetImpressionListName(index int, name any) error {
	if err := checkIndex("SetImpressionListName", index); err != nil {
		return err
	}
	if name == nil {
		return &MissingArgumentError{Operation: "SetImpressionListName"}
	}
	a.setWire("il"+strconv.Itoa(index)+"nm", name)
	return nil
}

func (a *Analytics) setIndexed(prefix, operation string, index int, value any) error {
	if err := checkIndex(operation, index); err != nil {
		return err
	}
	if value == nil {
		return &MissingArgumentError{Operation: operation}
	}
	a.setWire(prefix+strconv.Itoa(index), value)
	return nil
}

func checkIndex(operation string, index int) error {
	if index < 1 || index > maxCustomIndex {
		return fmt.Errorf("%s: index %d out of range 1..%d", operation, index, maxCustomIndex)
	}
	return nil
}

// HasMinimumRequiredParameters reports whether protocol version, tracking id,
// client id and hit type are all set.
func (a *Analytics) HasMinimumRequiredParameters() bool {
	return len(a.missingRequired()) == 0
}

func (a *Analytics) missingRequired() []string {
	var missing []string
	for _, key := range requiredKeys {
		if _, ok := a.singles[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// Payload returns the wire pairs the next send would carry.
func (a *Analytics) Payload() url.Values {
	return BuildPayload(a.singles, a.compounds)
}

// Send sets the hit type and transmits the accumulated hit. Nothing is sent
// when a required parameter is missing. The response is returned unchanged
// from the transport, together with its error if any.
func (a *Analytics) Send(ctx context.Context, hitType string) (*Response, error) {
	value, err := a.registry.HitType(hitType)
	if err != nil {
		return nil, err
	}
	if err := a.Set(HitType, value); err != nil {
		return nil, err
	}
	if missing := a.missingRequired(); len(missing) > 0 {
		return nil, &InvalidPayloadError{Missing: missing}
	}

	endpoint := a.cfg.Endpoint()
	logger := a.cfg.logger()
	logger.Debugf("measurement: sending %s hit to %s", value, endpoint)

	start := time.Now()
	resp, err := a.transport.Post(ctx, endpoint, a.singles, a.compounds)
	a.record(start, value, resp, err)
	if err != nil {
		logger.Debugf("measurement: %s hit failed: %s", value, err.Error())
	}
	return resp, err
}

func (a *Analytics) record(start time.Time, hitType string, resp *Response, err error) {
	if a.cfg.Recorder == nil {
		return
	}
	rec := HitRecord{
		At:         start,
		TrackingID: FormatValue(a.singles["tid"].Value()),
		HitType:    hitType,
		StatusCode: resp.StatusCode(),
		Err:        err,
		Duration:   time.Since(start),
	}
	if resp != nil && resp.Payload != nil {
		rec.PayloadBytes = len(resp.Payload.Encode())
	} else {
		rec.PayloadBytes = len(a.Payload().Encode())
	}
	if recErr := a.cfg.Recorder.RecordHit(rec); recErr != nil {
		a.cfg.logger().Warnf("measurement: recording %s hit: %s", hitType, recErr.Error())
	}
}

// Call resolves a named operation the way the method-style API spells it:
// "setProductActionToPurchase", "setTrackingId", "addProduct",
// "sendPageview". Set and add operations return a nil response.
func (a *Analytics) Call(ctx context.Context, operation string, args ...any) (*Response, error) {
	var arg any
	if len(args) > 0 {
		arg = args[0]
	}

	switch {
	case hasOperationPrefix(operation, "setProductActionTo"):
		return nil, a.SetProductActionTo(strings.TrimPrefix(operation, "setProductActionTo"))
	case hasOperationPrefix(operation, "set"):
		kind := FieldKind(strings.TrimPrefix(operation, "set"))
		if _, err := a.registry.Lookup(kind); err != nil {
			return nil, err
		}
		if arg == nil {
			return nil, &MissingArgumentError{Operation: operation}
		}
		return nil, a.Set(kind, arg)
	case hasOperationPrefix(operation, "add"):
		kind := FieldKind(strings.TrimPrefix(operation, "add"))
		if _, err := a.registry.Lookup(kind); err != nil {
			return nil, err
		}
		item, err := asItem(operation, arg)
		if err != nil {
			return nil, err
		}
		_, err = a.Add(kind, item)
		return nil, err
	case hasOperationPrefix(operation, "send"):
		return a.Send(ctx, strings.TrimPrefix(operation, "send"))
	default:
		return nil, &UnknownOperationError{Operation: operation}
	}
}

// hasOperationPrefix requires a non-empty name after the prefix, so a bare
// "set" or "send" matches no operation shape.
func hasOperationPrefix(operation, prefix string) bool {
	return len(operation) > len(prefix) && strings.HasPrefix(operation, prefix)
}

func asItem(operation string, arg any) (Item, error) {
	switch node := arg.(type) {
	case nil:
		return nil, &MissingArgumentError{Operation: operation}
	case Item:
		if node == nil {
			return nil, &MissingArgumentError{Operation: operation}
		}
		return node, nil
	case map[string]any:
		if node == nil {
			return nil, &MissingArgumentError{Operation: operation}
		}
		return Item(node), nil
	case map[string]string:
		item := make(Item, len(node))
		for k, v := range node {
			item[k] = v
		}
		return item, nil
	default:
		return nil, fmt.Errorf("%s: item must be a map, got %T", operation, arg)
	}
}

// NewClientID returns a random version 4 UUID suitable for the cid field.
func NewClientID() string {
	return uuid.NewString()
}
