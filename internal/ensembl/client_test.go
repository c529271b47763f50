package ensembl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTranscriptID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ENST00000398417.1", "ENST00000398417"},
		{"ENST00000257770.2", "ENST00000257770"},
		{"ENST00000617185", "ENST00000617185"},
		{"ENST00000617185.1.2", "ENST00000617185"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTranscriptID(tt.in))
	}
}

func TestProteinSequence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sequence/id/ENST00000398417", r.URL.Path)
		assert.Equal(t, "protein", r.URL.Query().Get("type"))
		assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte("MAEGEITTFT"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	seq, ok, err := c.ProteinSequence(context.Background(), "ENST00000398417")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "MAEGEITTFT", seq)
}

func TestProteinSequenceNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	seq, ok, err := c.ProteinSequence(context.Background(), "ENST00000000000")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, seq)
}

func TestProteinSequenceTransportFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL, time.Second)
	_, ok, err := c.ProteinSequence(context.Background(), "ENST00000398417")
	assert.False(t, ok)
	assert.Error(t, err)
}
