package main

import (
	"strings"
	"testing"

	"github.com/jcass77/WTFIX-sub000/config"
	"github.com/jcass77/WTFIX-sub000/dictionary"
)

func testConfig() *config.Config {
	return &config.Config{SenderCompID: "CLIENT", TargetCompID: "SERVER"}
}

func TestParseOrderArgsBuildsNewOrderSingle(t *testing.T) {
	msg, err := parseOrderArgs(testConfig(), strings.Fields("order o-1 BTC-USD 1 2 1 0.5 50000"))
	if err != nil {
		t.Fatalf("parseOrderArgs: %v", err)
	}
	if msg.Type() != dictionary.MsgTypeNewOrderSingle {
		t.Fatalf("got MsgType %q, want NewOrderSingle", msg.Type())
	}
	clOrdID, err := msg.Get(11)
	if err != nil || clOrdID.String() != "o-1" {
		t.Fatalf("got ClOrdID %v, want o-1", clOrdID)
	}
}

func TestParseOrderArgsRejectsTooFewFields(t *testing.T) {
	if _, err := parseOrderArgs(testConfig(), strings.Fields("order o-1 BTC-USD")); err == nil {
		t.Fatal("expected a usage error for a short order command")
	}
}

func TestParseCancelArgsReferencesOriginal(t *testing.T) {
	msg, err := parseCancelArgs(testConfig(), strings.Fields("cancel c-1 o-1 venue-1 BTC-USD 1"))
	if err != nil {
		t.Fatalf("parseCancelArgs: %v", err)
	}
	if msg.Type() != dictionary.MsgTypeOrderCancelRequest {
		t.Fatalf("got MsgType %q, want OrderCancelRequest", msg.Type())
	}
	orig, _ := msg.Get(41)
	if orig.String() != "o-1" {
		t.Fatalf("got OrigClOrdID %q, want o-1", orig.String())
	}
}

func TestParseReplaceArgsRejectsTooFewFields(t *testing.T) {
	if _, err := parseReplaceArgs(testConfig(), strings.Fields("replace c-1 o-1 venue-1")); err == nil {
		t.Fatal("expected a usage error for a short replace command")
	}
}

func TestParseStatusArgsOmitsOptionalFields(t *testing.T) {
	msg, err := parseStatusArgs(testConfig(), strings.Fields("status venue-1"))
	if err != nil {
		t.Fatalf("parseStatusArgs: %v", err)
	}
	if _, err := msg.Get(11); err == nil {
		t.Fatal("expected ClOrdID to be absent when not supplied")
	}
	orderID, _ := msg.Get(37)
	if orderID.String() != "venue-1" {
		t.Fatalf("got OrderID %q, want venue-1", orderID.String())
	}
}
