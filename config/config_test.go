package config

import (
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("got Host %q, want default", cfg.Host)
	}
	if cfg.Port != 9878 {
		t.Errorf("got Port %d, want default 9878", cfg.Port)
	}
	if cfg.BeginString != "FIX.4.4" {
		t.Errorf("got BeginString %q, want FIX.4.4", cfg.BeginString)
	}
	if !cfg.ResetSeqNums {
		t.Errorf("expected ResetSeqNums default true")
	}
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	t.Setenv("WTFIX_HOST", "fix.example.com")
	t.Setenv("WTFIX_PORT", "7001")
	t.Setenv("WTFIX_SENDER_COMP_ID", "MYFIRM")
	t.Setenv("WTFIX_TARGET_COMP_ID", "BROKER")
	t.Setenv("WTFIX_TEST_MODE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "fix.example.com" {
		t.Errorf("got Host %q, want env override", cfg.Host)
	}
	if cfg.Port != 7001 {
		t.Errorf("got Port %d, want 7001", cfg.Port)
	}
	if cfg.SenderCompID != "MYFIRM" {
		t.Errorf("got SenderCompID %q, want MYFIRM", cfg.SenderCompID)
	}
	if cfg.TargetCompID != "BROKER" {
		t.Errorf("got TargetCompID %q, want BROKER", cfg.TargetCompID)
	}
	if !cfg.TestMode {
		t.Errorf("expected TestMode true from env override")
	}
}

func TestValidateRejectsEmptySenderCompID(t *testing.T) {
	cfg := defaults()
	cfg.SenderCompID = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for empty sender_comp_id")
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := defaults()
	cfg.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an out-of-range port")
	}
}

func TestValidateRejectsNonPositiveHeartbeatInterval(t *testing.T) {
	cfg := defaults()
	cfg.HeartbeatInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a non-positive heartbeat_interval")
	}
}

func TestParseGroupTemplatesEmptyIsNil(t *testing.T) {
	cfg := defaults()
	specs, err := cfg.ParseGroupTemplates()
	if err != nil {
		t.Fatalf("ParseGroupTemplates: %v", err)
	}
	if specs != nil {
		t.Fatalf("got %+v, want nil for an unset group_templates", specs)
	}
}

func TestParseGroupTemplatesDecodesNested(t *testing.T) {
	cfg := defaults()
	cfg.GroupTemplates = `[
		{"identifier_tag": 539, "msg_type": "*", "instance_tags": [524, 525, 538, 804],
		 "nested": [{"identifier_tag": 804, "msg_type": "*", "instance_tags": [545, 805]}]}
	]`

	specs, err := cfg.ParseGroupTemplates()
	if err != nil {
		t.Fatalf("ParseGroupTemplates: %v", err)
	}
	if len(specs) != 1 || specs[0].IdentifierTag != 539 {
		t.Fatalf("got %+v, want one spec for tag 539", specs)
	}
	if len(specs[0].Nested) != 1 || specs[0].Nested[0].IdentifierTag != 804 {
		t.Fatalf("got nested %+v, want one spec for tag 804", specs[0].Nested)
	}
}

func TestParseGroupTemplatesRejectsMalformedJSON(t *testing.T) {
	cfg := defaults()
	cfg.GroupTemplates = `not json`
	if _, err := cfg.ParseGroupTemplates(); err == nil {
		t.Fatal("expected an error for malformed group_templates JSON")
	}
}
