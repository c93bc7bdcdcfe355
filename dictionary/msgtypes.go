package dictionary

// Administrative message types, per FIX 4.4 session protocol.
const (
	MsgTypeHeartbeat      = "0"
	MsgTypeTestRequest    = "1"
	MsgTypeResendRequest  = "2"
	MsgTypeReject         = "3"
	MsgTypeSequenceReset  = "4"
	MsgTypeLogout         = "5"
	MsgTypeLogon          = "A"
)

// Application message types this engine's builders know how to construct.
// The set is deliberately small: the engine is a generic transport, not a
// trading application, so only enough of the application layer is modeled
// to exercise the pipeline end to end.
const (
	MsgTypeNewOrderSingle   = "D"
	MsgTypeExecutionReport  = "8"
	MsgTypeOrderCancelReject = "9"
	MsgTypeOrderCancelRequest = "F"
	MsgTypeOrderCancelReplaceRequest = "G"
	MsgTypeOrderStatusRequest = "H"
)

// msgTypeNames maps message type codes to their FIX name, generalized from the
// full admin+application vocabulary.
var msgTypeNames = map[string]string{
	MsgTypeHeartbeat:                 "Heartbeat",
	MsgTypeTestRequest:               "TestRequest",
	MsgTypeResendRequest:             "ResendRequest",
	MsgTypeReject:                    "Reject",
	MsgTypeSequenceReset:             "SequenceReset",
	MsgTypeLogout:                    "Logout",
	MsgTypeLogon:                     "Logon",
	MsgTypeNewOrderSingle:            "NewOrderSingle",
	MsgTypeExecutionReport:           "ExecutionReport",
	MsgTypeOrderCancelReject:         "OrderCancelReject",
	MsgTypeOrderCancelRequest:        "OrderCancelRequest",
	MsgTypeOrderCancelReplaceRequest: "OrderCancelReplaceRequest",
	MsgTypeOrderStatusRequest:        "OrderStatusRequest",
}

// adminMsgTypes is the set of session-level message types that the session
// and heartbeat stages handle directly, rather than passing through to the
// application layer.
var adminMsgTypes = map[string]bool{
	MsgTypeHeartbeat:     true,
	MsgTypeTestRequest:   true,
	MsgTypeResendRequest: true,
	MsgTypeReject:        true,
	MsgTypeSequenceReset: true,
	MsgTypeLogout:        true,
	MsgTypeLogon:         true,
}

// MsgTypeName returns the FIX name for a message type code, or "" if
// unknown.
func MsgTypeName(msgType string) string {
	return msgTypeNames[msgType]
}

// IsAdmin reports whether msgType is a session-level (administrative)
// message type.
func IsAdmin(msgType string) bool {
	return adminMsgTypes[msgType]
}
