package config

import (
	"strings"
	"testing"
	"time"

	"epf/internal/errs"
)

func TestParsePropertiesCommentsAndBlanks(t *testing.T) {
	in := "# comment\n\n   ; semicolon comment\nentropy.port = 8080  \n"
	props, err := ParseProperties(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(props) != 1 {
		t.Fatalf("got %d properties, want 1: %v", len(props), props)
	}
	if props["entropy.port"] != "8080" {
		t.Fatalf("got %q, want 8080", props["entropy.port"])
	}
}

func TestParsePropertiesKeepsEmbeddedKeyWhitespace(t *testing.T) {
	props, err := ParseProperties(strings.NewReader("odd key = v\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if props["odd key"] != "v" {
		t.Fatalf("embedded whitespace in key not preserved: %v", props)
	}
}

func TestParsePropertiesSkipsValueless(t *testing.T) {
	props, err := ParseProperties(strings.NewReader("no-equals-sign\nempty.value =   \n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(props) != 0 {
		t.Fatalf("expected no properties, got %v", props)
	}
}

func validProps() Properties {
	return Properties{
		PropHost:           "random.example.com",
		PropPort:           "443",
		PropResource:       "/api/randbytes/",
		PropStreamEncrypt:  "false",
		PropRequestBytes:   "4096",
		PropSSLEnabled:     "true",
		PropDownloadPeriod: "50000",
		PropFeederPeriod:   "60000",
		PropMaxQueueBytes:  "100000",
	}
}

func TestFromPropertiesComplete(t *testing.T) {
	cfg, err := fromProperties(validProps())
	if err != nil {
		t.Fatalf("fromProperties: %v", err)
	}
	if cfg.Host != "random.example.com" || cfg.Port != 443 {
		t.Fatalf("host/port wrong: %+v", cfg)
	}
	if cfg.DownloadPeriod != 50*time.Millisecond {
		t.Fatalf("download period = %v, want 50ms", cfg.DownloadPeriod)
	}
	if !cfg.SSLEnabled || cfg.StreamEncrypted {
		t.Fatalf("boolean fields wrong: %+v", cfg)
	}
}

func TestFromPropertiesClampsRequestBytes(t *testing.T) {
	props := validProps()
	props[PropRequestBytes] = "999999"
	cfg, err := fromProperties(props)
	if err != nil {
		t.Fatalf("fromProperties: %v", err)
	}
	if cfg.RequestBytes != MaxRequestBytes {
		t.Fatalf("request bytes = %d, want clamped %d", cfg.RequestBytes, MaxRequestBytes)
	}
}

func TestFromPropertiesMissingHost(t *testing.T) {
	props := validProps()
	delete(props, PropHost)
	_, err := fromProperties(props)
	if !errs.IsKind(err, errs.KindConfig) {
		t.Fatalf("expected KindConfig, got %v", err)
	}
}

func TestFromPropertiesBadBoolean(t *testing.T) {
	props := validProps()
	props[PropSSLEnabled] = "TRUE"
	_, err := fromProperties(props)
	if !errs.IsKind(err, errs.KindConfig) {
		t.Fatalf("expected KindConfig for non-lowercase boolean, got %v", err)
	}
}

func TestFromPropertiesPubKeyRequiredWhenEncrypted(t *testing.T) {
	props := validProps()
	props[PropStreamEncrypt] = "true"
	_, err := fromProperties(props)
	if !errs.IsKind(err, errs.KindConfig) {
		t.Fatalf("expected KindConfig when pubkey path missing, got %v", err)
	}

	props[PropPubKeyFile] = "/etc/epf/service.pem"
	cfg, err := fromProperties(props)
	if err != nil {
		t.Fatalf("fromProperties: %v", err)
	}
	if !cfg.StreamEncrypted || cfg.PubKeyPath != "/etc/epf/service.pem" {
		t.Fatalf("pubkey wiring wrong: %+v", cfg)
	}
}
