package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hangarops/docsense/internal/domain"
)

func TestExtract_OK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/extract" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("filename") != "amm.pdf" {
			t.Errorf("unexpected filename: %s", r.URL.Query().Get("filename"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": "Chapter 1. Torque limits."}`))
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second)
	text, err := c.Extract(context.Background(), "amm.pdf", []byte("%PDF-1.7"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "Chapter 1. Torque limits." {
		t.Errorf("text = %q", text)
	}
}

func TestExtract_ServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second)
	_, err := c.Extract(context.Background(), "amm.pdf", nil)
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestExtract_ClientErrorIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second)
	_, err := c.Extract(context.Background(), "corrupt.pdf", nil)
	if !errors.Is(err, domain.ErrDocumentUnreadable) {
		t.Errorf("expected ErrDocumentUnreadable, got %v", err)
	}
	if errors.Is(err, domain.ErrProviderUnavailable) {
		t.Error("4xx must not be transient")
	}
}

func TestExtract_EmptyTextIsUnreadable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"text": "   "}`))
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second)
	_, err := c.Extract(context.Background(), "scanned.pdf", nil)
	if !errors.Is(err, domain.ErrDocumentUnreadable) {
		t.Errorf("expected ErrDocumentUnreadable, got %v", err)
	}
}
