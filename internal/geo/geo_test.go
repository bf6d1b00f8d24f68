package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountry_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/203.0.113.7", r.URL.Path)
		w.Write([]byte(`{"status":"success","country":"Brazil"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	country, err := c.Country(context.Background(), "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, "Brazil", country)
}

func TestCountry_LookupFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Country(context.Background(), "192.0.2.1")
	assert.Error(t, err)
}

func TestCountry_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Country(context.Background(), "203.0.113.7")
	assert.Error(t, err)
}

func TestCountry_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Country(context.Background(), "203.0.113.7")
	assert.Error(t, err)
}

func TestCountry_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 20*time.Millisecond)
	_, err := c.Country(context.Background(), "203.0.113.7")
	assert.Error(t, err)
}

func TestCountry_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 100*time.Millisecond)
	_, err := c.Country(context.Background(), "203.0.113.7")
	assert.Error(t, err)
}

func TestLookupable(t *testing.T) {
	assert.True(t, Lookupable("203.0.113.7"))
	assert.False(t, Lookupable(""))
	assert.False(t, Lookupable("127.0.0.1"))
	assert.False(t, Lookupable("::1"))
}
