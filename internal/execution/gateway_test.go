package execution

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pistonOK(stdout, stderr string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"run":{"stdout":"` + stdout + `","stderr":"` + stderr + `"}}`))
	}
}

func serverError() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}
}

func adapterFor(t *testing.T, h http.HandlerFunc) (*PistonAdapter, func()) {
	t.Helper()
	srv := httptest.NewServer(h)
	return NewPistonAdapter("test", srv.URL, "*", time.Second), srv.Close
}

func TestGatewayFallsBackAcrossAdapters(t *testing.T) {
	a1, c1 := adapterFor(t, serverError())
	defer c1()
	a2, c2 := adapterFor(t, serverError())
	defer c2()
	a3, c3 := adapterFor(t, pistonOK("ok", ""))
	defer c3()

	g := NewGateway(a1, a2, a3)
	res, err := g.Execute(context.Background(), Request{Language: "python", Source: "print('ok')"})
	require.NoError(t, err, "earlier failures must not surface once a backend succeeds")
	assert.Equal(t, "ok", res.Stdout)
	assert.Empty(t, res.Stderr)
}

func TestGatewayStopsAtFirstSuccess(t *testing.T) {
	hits := 0
	srv1 := httptest.NewServer(http.HandlerFunc(pistonOK("first", "")))
	defer srv1.Close()
	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		pistonOK("second", "")(w, r)
	}))
	defer srv2.Close()

	g := NewGateway(
		NewPistonAdapter("one", srv1.URL, "*", time.Second),
		NewPistonAdapter("two", srv2.URL, "*", time.Second),
	)
	res, err := g.Execute(context.Background(), Request{Language: "go", Source: "package main"})
	require.NoError(t, err)
	assert.Equal(t, "first", res.Stdout)
	assert.Zero(t, hits, "later adapters must not be called after a success")
}

func TestGatewayExhausted(t *testing.T) {
	a1, c1 := adapterFor(t, serverError())
	defer c1()
	a2, c2 := adapterFor(t, serverError())
	defer c2()
	a3, c3 := adapterFor(t, serverError())
	defer c3()

	g := NewGateway(a1, a2, a3)
	res, err := g.Execute(context.Background(), Request{Language: "python", Source: "1/0"})
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrExhausted)
	assert.NotEmpty(t, UserMessage, "exhaustion must map to a user-presentable message")
}

func TestGatewayMalformedResponseFallsBack(t *testing.T) {
	a1, c1 := adapterFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})
	defer c1()
	a2, c2 := adapterFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected":true}`)) // 200 but no run section
	})
	defer c2()
	a3, c3 := adapterFor(t, pistonOK("saved", ""))
	defer c3()

	g := NewGateway(a1, a2, a3)
	res, err := g.Execute(context.Background(), Request{Language: "ruby", Source: "puts 1"})
	require.NoError(t, err)
	assert.Equal(t, "saved", res.Stdout)
}

func TestGatewayAdapterTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		pistonOK("too late", "")(w, r)
	}))
	defer slow.Close()
	fast, cFast := adapterFor(t, pistonOK("in time", ""))
	defer cFast()

	g := NewGateway(
		NewPistonAdapter("slow", slow.URL, "*", 50*time.Millisecond),
		fast,
	)
	res, err := g.Execute(context.Background(), Request{Language: "c", Source: "int main(){}"})
	require.NoError(t, err)
	assert.Equal(t, "in time", res.Stdout)
}

func TestGlotAdapter(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`{"stdout":"hi","stderr":"","error":""}`))
		}))
		defer srv.Close()

		a := NewGlotAdapter("glot", srv.URL, "secret", time.Second)
		res, err := a.Execute(context.Background(), Request{Language: "python", Source: "print('hi')"})
		require.NoError(t, err)
		assert.Equal(t, "hi", res.Stdout)
		assert.Equal(t, "Token secret", gotAuth)
	})

	t.Run("backend error field fails the adapter", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"stdout":"","stderr":"","error":"sandbox unavailable"}`))
		}))
		defer srv.Close()

		a := NewGlotAdapter("glot", srv.URL, "", time.Second)
		_, err := a.Execute(context.Background(), Request{Language: "python", Source: "x"})
		assert.Error(t, err)
	})
}
