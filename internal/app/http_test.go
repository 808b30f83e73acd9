package app

import (
	"net/http"
	"reflect"
	"strings"
	"testing"
)

func TestNewHTTPClient_Config(t *testing.T) {
	c := newHTTPClient()
	if c.Timeout == 0 {
		t.Fatalf("expected non-zero timeout")
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected http.Transport")
	}
	if tr.Proxy == nil {
		t.Fatalf("expected proxy from environment")
	}
	if tr.TLSClientConfig != nil && tr.TLSClientConfig.InsecureSkipVerify {
		t.Fatalf("TLS verification must stay enabled")
	}
	if reflect.ValueOf(http.DefaultTransport).Pointer() == reflect.ValueOf(tr).Pointer() {
		t.Fatalf("transport should not be default")
	}
}

func TestVersionString(t *testing.T) {
	old := Version
	Version = "1.2.3"
	defer func() { Version = old }()
	if got := VersionString(); !strings.HasPrefix(got, "gosummarize 1.2.3 ") {
		t.Fatalf("version = %q", got)
	}
}
