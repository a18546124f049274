package oscquery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
)

func TestServerHostInfo(t *testing.T) {
	srv := NewServer("OSCLeash", netip.MustParseAddrPort("127.0.0.1:9123"))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?HOST_INFO", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var info HostInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.Name != "OSCLeash" || info.OSCIP != "127.0.0.1" || info.OSCPort != 9123 || info.OSCTransport != "UDP" {
		t.Errorf("HostInfo = %+v", info)
	}
	if !info.Extensions["VALUE"] || !info.Extensions["ACCESS"] {
		t.Errorf("Extensions = %v", info.Extensions)
	}
}

func TestServerTree(t *testing.T) {
	srv := NewServer("OSCLeash", netip.MustParseAddrPort("127.0.0.1:9123"))

	tests := []struct {
		path       string
		wantStatus int
		wantPath   string
	}{
		{"/", http.StatusOK, "/"},
		{"/avatar", http.StatusOK, "/avatar"},
		{"/avatar/change", http.StatusOK, "/avatar/change"},
		{"/avatar/parameters", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.wantStatus {
			t.Errorf("GET %s status = %d, want %d", tt.path, rec.Code, tt.wantStatus)
			continue
		}
		if tt.wantStatus != http.StatusOK {
			continue
		}
		var node Node
		if err := json.NewDecoder(rec.Body).Decode(&node); err != nil {
			t.Fatalf("GET %s: %v", tt.path, err)
		}
		if node.FullPath != tt.wantPath {
			t.Errorf("GET %s FULL_PATH = %q", tt.path, node.FullPath)
		}
	}
}

func TestServerAttributeQuery(t *testing.T) {
	srv := NewServer("OSCLeash", netip.MustParseAddrPort("127.0.0.1:9123"))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/avatar/change?ACCESS", nil))

	var got map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got["ACCESS"] != AccessWrite {
		t.Errorf("ACCESS = %v", got)
	}
}
