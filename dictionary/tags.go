// Package dictionary holds the static FIX 4.4 protocol tables this engine
// needs: tag number to field name, message type code to name, and the
// repeating-group templates the wire decoder uses to recognize where a
// group starts and how long each of its instances is.
package dictionary

// Names maps well-known tag numbers to their FIX field name. It is not
// exhaustive: it holds most of the tags this engine's session layer,
// heartbeat monitor, sequence manager, and builders touch, plus part of the
// NewOrderSingle/ExecutionReport vocabulary and the NoPartyIDs group. Some
// tags used elsewhere in the tree (e.g. TestMessageIndicator 464, StopPx 99,
// and the NoNestedPartyIDs 539 group's tags) are not listed, so Name returns
// "" for them.
var Names = map[int]string{
	1:   "Account",
	6:   "AvgPx",
	7:   "BeginSeqNo",
	8:   "BeginString",
	9:   "BodyLength",
	10:  "CheckSum",
	11:  "ClOrdID",
	14:  "CumQty",
	15:  "Currency",
	16:  "EndSeqNo",
	17:  "ExecID",
	18:  "ExecInst",
	20:  "ExecTransType",
	21:  "HandlInst",
	22:  "IDSource",
	23:  "IOIid",
	31:  "LastPx",
	32:  "LastShares",
	34:  "MsgSeqNum",
	35:  "MsgType",
	36:  "NewSeqNo",
	37:  "OrderID",
	38:  "OrderQty",
	39:  "OrdStatus",
	40:  "OrdType",
	41:  "OrigClOrdID",
	43:  "PossDupFlag",
	44:  "Price",
	45:  "RefSeqNum",
	48:  "SecurityID",
	49:  "SenderCompID",
	52:  "SendingTime",
	54:  "Side",
	55:  "Symbol",
	56:  "TargetCompID",
	58:  "Text",
	59:  "TimeInForce",
	60:  "TransactTime",
	97:  "PossResend",
	98:  "EncryptMethod",
	102: "CxlRejReason",
	103: "OrdRejReason",
	108: "HeartBtInt",
	112: "TestReqID",
	122: "OrigSendingTime",
	123: "GapFillFlag",
	128: "DeliverToCompID",
	141: "ResetSeqNumFlag",
	146: "NoRelatedSym",
	150: "ExecType",
	151: "LeavesQty",
	167: "SecurityType",
	371: "RefTagID",
	372: "RefMsgType",
	373: "SessionRejectReason",
	453: "NoPartyIDs",
	448: "PartyID",
	447: "PartyIDSource",
	452: "PartyRole",
	553: "Username",
	554: "Password",
	789: "NextExpectedMsgSeqNum",
}

// Name returns the FIX field name for tag, or "" if unknown.
func Name(tag int) string {
	return Names[tag]
}
