package wire

import (
	"bytes"
	"strconv"
	"time"

	"github.com/jcass77/WTFIX-sub000/field"
	"github.com/jcass77/WTFIX-sub000/fieldmap"
	"github.com/jcass77/WTFIX-sub000/message"
)

// SOH is the FIX field delimiter (ASCII 0x01).
const SOH = byte(0x01)

// sendingTimeLayout is FIX's UTCTimestamp format at millisecond precision.
const sendingTimeLayout = "20060102-15:04:05.000"

// Encode renders msg into its FIX-compliant, SOH-delimited wire form:
// standard header (8, 9, 35), body fields and groups in their stored order,
// and trailer (10). SendingTime (52) is stamped here, unconditionally, with
// the current UTC time: it is the one header field no upstream pipeline
// stage sets on the caller's behalf, so the codec generates it itself on
// every send, matching the way wtfix's EncoderApp.encode_message stamps the
// field just before writing to the wire.
func Encode(msg *message.Message) ([]byte, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	msg.Set(field.New(message.TagSendingTime, time.Now().UTC().Format(sendingTimeLayout)))

	var body bytes.Buffer
	for _, f := range msg.Fields() {
		writeField(&body, f.Tag(), f.Raw())
	}
	for _, g := range msg.Groups() {
		writeGroup(&body, g)
	}

	var msgTypeField bytes.Buffer
	writeField(&msgTypeField, message.TagMsgType, []byte(msg.Type()))

	// BodyLength counts every byte from the start of MsgType (35) up to the
	// CheckSum (10) field.
	var header bytes.Buffer
	writeField(&header, message.TagBeginString, []byte(msg.BeginString))
	writeField(&header, message.TagBodyLength, []byte(strconv.Itoa(msgTypeField.Len()+body.Len())))
	header.Write(msgTypeField.Bytes())

	var out bytes.Buffer
	out.Write(header.Bytes())
	out.Write(body.Bytes())

	checksum := Checksum(out.Bytes())
	writeField(&out, message.TagCheckSum, []byte(pad3(checksum)))

	return out.Bytes(), nil
}

func writeField(buf *bytes.Buffer, tag int, value []byte) {
	buf.WriteString(strconv.Itoa(tag))
	buf.WriteByte('=')
	buf.Write(value)
	buf.WriteByte(SOH)
}

// writeGroup serializes a repeating group as its identifier field (the
// instance count) followed by each instance in order.
func writeGroup(buf *bytes.Buffer, g *fieldmap.Group) {
	writeField(buf, g.IdentifierTag, []byte(strconv.Itoa(len(g.Instances))))
	for _, instance := range g.Instances {
		writeInstance(buf, instance)
	}
}

// writeInstance serializes one repeating-group instance: its own flat
// fields followed by any nested groups it carries, mirroring the
// fields-then-groups ordering Encode uses for the top-level message body.
func writeInstance(buf *bytes.Buffer, instance *fieldmap.Instance) {
	for _, f := range instance.Fields() {
		writeField(buf, f.Tag(), f.Raw())
	}
	for _, g := range instance.Groups() {
		writeGroup(buf, g)
	}
}

func pad3(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}
