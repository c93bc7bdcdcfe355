// Package builder constructs outbound message.Message values for the
// session-level and application-level message types this engine sends,
// generalizing the teacher's per-message-type builder functions to this
// module's FieldMap-backed message model.
package builder

import (
	"github.com/jcass77/WTFIX-sub000/dictionary"
	"github.com/jcass77/WTFIX-sub000/field"
	"github.com/jcass77/WTFIX-sub000/message"
)

// setStringIfNotEmpty sets tag to value on msg only when value is non-empty,
// for FIX's conditionally-required fields.
func setStringIfNotEmpty(msg *message.Message, tag int, value string) {
	if value != "" {
		msg.Set(field.New(tag, value))
	}
}

func buildHeader(msg *message.Message, senderCompID, targetCompID string) {
	msg.Set(field.New(message.TagSenderCompID, senderCompID))
	msg.Set(field.New(message.TagTargetCompID, targetCompID))
}

// LogonParams collects the fields a Logon message carries.
type LogonParams struct {
	SenderCompID string
	TargetCompID string
	HeartBtInt   int
	Username     string
	Password     string
	ResetSeqNums bool
	TestMode     bool
}

// BuildLogon creates a Logon (A) message.
func BuildLogon(p LogonParams) *message.Message {
	m := message.New(dictionary.MsgTypeLogon)
	buildHeader(m, p.SenderCompID, p.TargetCompID)
	m.Set(field.NewInt(98, 0)) // EncryptMethod: none
	m.Set(field.NewInt(108, p.HeartBtInt))
	setStringIfNotEmpty(m, 553, p.Username)
	setStringIfNotEmpty(m, 554, p.Password)
	m.Set(field.NewBool(141, p.ResetSeqNums))
	if p.TestMode {
		m.Set(field.NewBool(464, true))
	}
	return m
}

// BuildLogout creates a Logout (5) message, optionally carrying a free-text
// reason in tag 58 (Text).
func BuildLogout(senderCompID, targetCompID, text string) *message.Message {
	m := message.New(dictionary.MsgTypeLogout)
	buildHeader(m, senderCompID, targetCompID)
	setStringIfNotEmpty(m, 58, text) // Text
	return m
}

// BuildHeartbeat creates a Heartbeat (0) message, echoing testReqID (tag
// 112) when it is answering a TestRequest.
func BuildHeartbeat(senderCompID, targetCompID, testReqID string) *message.Message {
	m := message.New(dictionary.MsgTypeHeartbeat)
	buildHeader(m, senderCompID, targetCompID)
	setStringIfNotEmpty(m, 112, testReqID)
	return m
}

// BuildTestRequest creates a TestRequest (1) message carrying testReqID (tag
// 112), the token the counterparty must echo back in its Heartbeat reply.
func BuildTestRequest(senderCompID, targetCompID, testReqID string) *message.Message {
	m := message.New(dictionary.MsgTypeTestRequest)
	buildHeader(m, senderCompID, targetCompID)
	m.Set(field.New(112, testReqID))
	return m
}

// BuildResendRequest creates a ResendRequest (2) message for the inclusive
// [beginSeqNo, endSeqNo] range. An endSeqNo of 0 means "through the highest
// sequence number currently available".
func BuildResendRequest(senderCompID, targetCompID string, beginSeqNo, endSeqNo int) *message.Message {
	m := message.New(dictionary.MsgTypeResendRequest)
	buildHeader(m, senderCompID, targetCompID)
	m.Set(field.NewInt(7, beginSeqNo))
	m.Set(field.NewInt(16, endSeqNo))
	return m
}

// BuildSequenceReset creates a SequenceReset (4) message. When gapFill is
// true the message is a GapFill (admin-run coalescing); newSeqNo is the
// sequence number the counterparty should expect next.
func BuildSequenceReset(senderCompID, targetCompID string, newSeqNo int, gapFill bool) *message.Message {
	m := message.New(dictionary.MsgTypeSequenceReset)
	buildHeader(m, senderCompID, targetCompID)
	m.Set(field.NewBool(123, gapFill)) // GapFillFlag
	m.Set(field.NewInt(36, newSeqNo))  // NewSeqNo
	return m
}
