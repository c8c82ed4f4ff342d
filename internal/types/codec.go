package types

import (
	"encoding/json"

	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// OrderEnvelope carries an order of any schema, tagged with its schema.
type OrderEnvelope struct {
	Schema Schema          `json:"schema"`
	Order  json.RawMessage `json:"order"`
}

// DecodeOrder parses an OrderEnvelope document.
func DecodeOrder(raw []byte) (Order, error) {
	var envelope OrderEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.Wrap(err, "failed to decode order envelope")
	}

	var o Order
	switch envelope.Schema {
	case SchemaV1:
		o = new(OrderV1)
	case SchemaV2:
		o = new(OrderV2)
	case SchemaV3:
		o = new(OrderV3)
	default:
		return nil, errors.From(errors.New("unknown order schema"), logan.F{"schema": envelope.Schema})
	}

	if err := json.Unmarshal(envelope.Order, o); err != nil {
		return nil, errors.Wrap(err, "failed to decode order", logan.F{"schema": envelope.Schema.String()})
	}
	return o, nil
}

// EncodeOrder wraps o into an OrderEnvelope document.
func EncodeOrder(o Order) ([]byte, error) {
	body, err := json.Marshal(o)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode order")
	}
	return json.Marshal(OrderEnvelope{Schema: o.Schema(), Order: body})
}
