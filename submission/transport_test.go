package submission

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSender_PostsJSON(t *testing.T) {
	var gotMethod, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewHTTPSender(srv.URL + "/api/v3/lk/documents/create")
	require.NoError(t, err)

	require.NoError(t, s.Send(context.Background(), []byte(`{"doc_id":"doc1"}`)))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, `{"doc_id":"doc1"}`, gotBody)
	assert.Equal(t, "/api/v3/lk/documents/create", s.Endpoint().Path)
}

func TestHTTPSender_NonOKStatusIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad document", http.StatusBadRequest)
	}))
	defer srv.Close()

	s, err := NewHTTPSender(srv.URL)
	require.NoError(t, err)

	err = s.Send(context.Background(), []byte(`{}`))
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusBadRequest, te.StatusCode)
	assert.Equal(t, "bad document", te.Body)
	assert.Contains(t, te.Error(), "400")
}

func TestHTTPSender_CreatedIsNotSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s, err := NewHTTPSender(srv.URL)
	require.NoError(t, err)

	var te *TransportError
	require.ErrorAs(t, s.Send(context.Background(), nil), &te)
	assert.Equal(t, http.StatusCreated, te.StatusCode)
}

func TestHTTPSender_ConnectionFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	s, err := NewHTTPSender(addr)
	require.NoError(t, err)

	err = s.Send(context.Background(), []byte(`{}`))
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
	assert.Error(t, te.Unwrap())
}

func TestNewHTTPSender_RejectsInvalidEndpoint(t *testing.T) {
	for _, endpoint := range []string{"", "not a url", "ftp://example.com/x", "/relative/path", "://bad"} {
		_, err := NewHTTPSender(endpoint)
		assert.Error(t, err, "endpoint %q", endpoint)
	}
}
