package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"kryreport/internal/pkg/circuit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeishu_SendTextPayload(t *testing.T) {
	var got feishuMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"code":0,"msg":"success","data":{}}`)
	}))
	defer srv.Close()

	err := NewFeishu(srv.URL, time.Second).SendText(context.Background(), "【店】实时营业报告")
	require.NoError(t, err)
	assert.Equal(t, "text", got.MsgType)
	assert.Equal(t, "【店】实时营业报告", got.Content.Text)
}

func TestFeishu_Failures(t *testing.T) {
	t.Run("http status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()
		err := NewFeishu(srv.URL, time.Second).SendText(context.Background(), "x")
		var de *DeliveryError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, http.StatusInternalServerError, de.StatusCode)
	})

	t.Run("business code", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"code":19021,"msg":"sign match fail"}`)
		}))
		defer srv.Close()
		err := NewFeishu(srv.URL, time.Second).SendText(context.Background(), "x")
		var de *DeliveryError
		require.ErrorAs(t, err, &de)
		assert.Contains(t, de.Error(), "19021")
	})

	t.Run("timeout", func(t *testing.T) {
		block := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { <-block }))
		defer srv.Close()
		defer close(block)
		err := NewFeishu(srv.URL, 50*time.Millisecond).SendText(context.Background(), "x")
		var de *DeliveryError
		require.ErrorAs(t, err, &de)
	})

	t.Run("missing url", func(t *testing.T) {
		err := NewFeishu("", 0).SendText(context.Background(), "x")
		var de *DeliveryError
		require.ErrorAs(t, err, &de)
	})
}

func TestTelegram_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegram("TOKEN", "42")
	tg.APIBase = srv.URL
	require.NoError(t, tg.SendText(context.Background(), "hi"))
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestTelegram_RetriesBoundedByBudget(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	tg := NewTelegram("TOKEN", "42")
	tg.APIBase = srv.URL
	tg.Budget = 200 * time.Millisecond

	start := time.Now()
	err := tg.SendText(context.Background(), "hi")
	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Less(t, time.Since(start), 2*time.Second)
}

type stubSink struct {
	name  string
	err   error
	calls int
}

func (s *stubSink) Name() string { return s.name }
func (s *stubSink) SendText(context.Context, string) error {
	s.calls++
	return s.err
}

func TestMulti_IsolatesFailures(t *testing.T) {
	bad := &stubSink{name: "bad", err: &DeliveryError{Sink: "bad", StatusCode: 500}}
	good := &stubSink{name: "good"}
	m := NewMulti(bad, nil, good)

	err := m.SendText(context.Background(), "x")
	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "bad", de.Sink)
	assert.Equal(t, 1, good.calls)
	assert.Equal(t, 2, m.Len())

	assert.NoError(t, NewMulti(good).SendText(context.Background(), "x"))
}

func TestGuarded_SkipsWhileOpen(t *testing.T) {
	sink := &stubSink{name: "feishu", err: errors.New("down")}
	cb := circuit.NewCircuitBreaker("feishu", 2, time.Hour)
	g := NewGuarded(sink, cb)

	assert.Error(t, g.SendText(context.Background(), "1"))
	assert.Error(t, g.SendText(context.Background(), "2"))
	err := g.SendText(context.Background(), "3")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, sink.calls)

	assert.Same(t, sink, NewGuarded(sink, nil))
}
