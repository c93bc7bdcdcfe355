package builder

import (
	"github.com/jcass77/WTFIX-sub000/dictionary"
	"github.com/jcass77/WTFIX-sub000/field"
	"github.com/jcass77/WTFIX-sub000/message"
)

// NewOrderParams collects the fields a NewOrderSingle (D) message carries.
type NewOrderParams struct {
	Account     string // required
	ClOrdID     string // required
	Symbol      string // required
	Side        string // "1" buy, "2" sell (required)
	OrdType     string // required
	TimeInForce string // required
	OrderQty    string // conditional: size
	Price       string // conditional: limit price
	StopPx      string // conditional: stop price
	ExpireTime  string // conditional: GTD expiry
	ExecInst    string // optional
}

// BuildNewOrderSingle creates a NewOrderSingle (D) message.
func BuildNewOrderSingle(p NewOrderParams, senderCompID, targetCompID string) *message.Message {
	m := message.New(dictionary.MsgTypeNewOrderSingle)
	buildHeader(m, senderCompID, targetCompID)

	m.Set(field.New(1, p.Account))
	m.Set(field.New(11, p.ClOrdID))
	m.Set(field.New(55, p.Symbol))
	m.Set(field.New(54, p.Side))
	m.Set(field.New(40, p.OrdType))
	m.Set(field.New(59, p.TimeInForce))

	setStringIfNotEmpty(m, 38, p.OrderQty)
	setStringIfNotEmpty(m, 44, p.Price)
	setStringIfNotEmpty(m, 99, p.StopPx)    // StopPx
	setStringIfNotEmpty(m, 126, p.ExpireTime) // ExpireTime
	setStringIfNotEmpty(m, 18, p.ExecInst)

	return m
}

// CancelOrderParams collects the fields an OrderCancelRequest (F) carries.
type CancelOrderParams struct {
	Account     string // required
	ClOrdID     string // required: this request's own ID
	OrigClOrdID string // required: the order being canceled
	OrderID     string // required: venue-assigned order ID
	Symbol      string // required
	Side        string // required
	OrderQty    string // conditional
}

// BuildOrderCancelRequest creates an OrderCancelRequest (F) message.
func BuildOrderCancelRequest(p CancelOrderParams, senderCompID, targetCompID string) *message.Message {
	m := message.New(dictionary.MsgTypeOrderCancelRequest)
	buildHeader(m, senderCompID, targetCompID)

	m.Set(field.New(1, p.Account))
	m.Set(field.New(11, p.ClOrdID))
	m.Set(field.New(41, p.OrigClOrdID))
	m.Set(field.New(37, p.OrderID))
	m.Set(field.New(55, p.Symbol))
	m.Set(field.New(54, p.Side))

	setStringIfNotEmpty(m, 38, p.OrderQty)

	return m
}

// ReplaceOrderParams collects the fields an OrderCancelReplaceRequest (G)
// carries.
type ReplaceOrderParams struct {
	Account     string // required
	ClOrdID     string // required, must differ from OrigClOrdID
	OrigClOrdID string // required
	OrderID     string // required
	Symbol      string // required
	Side        string // required, must match the original
	OrdType     string // required, must match the original
	OrderQty    string // conditional: new total quantity
	Price       string // required: new limit price
	StopPx      string // conditional
}

// BuildOrderCancelReplaceRequest creates an OrderCancelReplaceRequest (G)
// message.
func BuildOrderCancelReplaceRequest(p ReplaceOrderParams, senderCompID, targetCompID string) *message.Message {
	m := message.New(dictionary.MsgTypeOrderCancelReplaceRequest)
	buildHeader(m, senderCompID, targetCompID)

	m.Set(field.New(1, p.Account))
	m.Set(field.New(11, p.ClOrdID))
	m.Set(field.New(41, p.OrigClOrdID))
	m.Set(field.New(37, p.OrderID))
	m.Set(field.New(55, p.Symbol))
	m.Set(field.New(54, p.Side))
	m.Set(field.New(40, p.OrdType))
	m.Set(field.New(21, "1")) // HandlInst: automated, no intervention
	m.Set(field.New(44, p.Price))

	setStringIfNotEmpty(m, 38, p.OrderQty)
	setStringIfNotEmpty(m, 99, p.StopPx)

	return m
}

// BuildOrderStatusRequest creates an OrderStatusRequest (H) message.
func BuildOrderStatusRequest(orderID, clOrdID, symbol, side, senderCompID, targetCompID string) *message.Message {
	m := message.New(dictionary.MsgTypeOrderStatusRequest)
	buildHeader(m, senderCompID, targetCompID)

	m.Set(field.New(37, orderID))
	setStringIfNotEmpty(m, 11, clOrdID)
	setStringIfNotEmpty(m, 55, symbol)
	setStringIfNotEmpty(m, 54, side)

	return m
}
