package simclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLinkConnectParsesAssignedIP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/nodes/root/devices/north/connect" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ip":"10.5.0.1"}`))
	}))
	defer srv.Close()

	link := NewLink(New(srv.URL), "root", "north")
	ip, err := link.Connect(context.Background())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if ip.String() != "10.5.0.1" {
		t.Fatalf("Connect() = %s, want 10.5.0.1", ip)
	}
}

func TestLinkSendPostsFrameBody(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	link := NewLink(New(srv.URL), "root", "north")
	if err := link.Send([]byte{0x01, 0x02, 0x03}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(gotBody) != 3 {
		t.Fatalf("expected the raw frame posted as the request body, got %v", gotBody)
	}
}

func TestLinkRecvReturnsBodyBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0xAA, 0xBB})
	}))
	defer srv.Close()

	link := NewLink(New(srv.URL), "root", "north")
	got, err := link.Recv(context.Background())
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if len(got) != 2 || got[0] != 0xAA || got[1] != 0xBB {
		t.Fatalf("Recv() = %v, want [0xAA 0xBB]", got)
	}
}

func TestLinkConnectPropagatesNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	link := NewLink(New(srv.URL), "root", "north")
	if _, err := link.Connect(context.Background()); err == nil {
		t.Fatal("expected an error for a non-200 connect response")
	}
}
