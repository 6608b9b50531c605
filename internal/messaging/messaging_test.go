package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/ppiankov/lieblocker/internal/errors"
	"github.com/ppiankov/lieblocker/internal/logger"
	"github.com/ppiankov/lieblocker/internal/model"
)

func TestEncode_SetsTypeAndFields(t *testing.T) {
	data, err := Encode(LieSkipped{VideoID: "abc123", Timestamp: 10, Duration: 5, Claim: "x"})
	require.NoError(t, err)

	assert.Equal(t, "lieSkipped", gjson.GetBytes(data, "type").String())
	assert.Equal(t, "abc123", gjson.GetBytes(data, "videoId").String())
	assert.Equal(t, 5.0, gjson.GetBytes(data, "duration").Float())

	data, err = Encode(Ping{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ping"}`, string(data))
}

func TestDecode_Variants(t *testing.T) {
	tests := []struct {
		in   string
		want Message
	}{
		{`{"type":"ping"}`, Ping{}},
		{`{"type":"analyzeVideo"}`, AnalyzeVideo{}},
		{`{"type":"skipLiesToggle","enabled":true}`, SkipLiesToggle{Enabled: true}},
		{`{"type":"jumpToTimestamp","timestamp":42.5}`, JumpToTimestamp{Timestamp: 42.5}},
		{`{"type":"pageUpdate","url":"https://www.youtube.com/watch?v=x"}`, PageUpdate{URL: "https://www.youtube.com/watch?v=x"}},
		{`{"type":"playbackState","currentTime":3,"paused":true}`, PlaybackState{CurrentTime: 3, Paused: true}},
		{`{"type":"seekTo","time":15}`, SeekTo{Time: 15}},
		{`{"type":"liesUpdate","videoId":"v","isComplete":true,"claims":[{"timestamp_seconds":1,"duration_seconds":2,"claim_text":"c"}]}`,
			LiesUpdate{VideoID: "v", IsComplete: true, Claims: []model.Claim{{TimestampSeconds: 1, DurationSeconds: 2, ClaimText: "c"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Decode([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_RoundTripsEncode(t *testing.T) {
	in := AnalysisProgress{Stage: StageTranscript, Message: "Extracting video transcript..."}
	data, err := Encode(in)
	require.NoError(t, err)
	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte(`{"type":"fly"}`))
	assert.True(t, errors.Is(err, ErrUnknownType))

	_, err = Decode([]byte(`{"type":`))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnknownType))
}

func TestHTTPCoordinator_Send(t *testing.T) {
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r.Body)
		got = buf.Bytes()
		_ = json.NewEncoder(w).Encode(Response{Success: true, Lies: []model.Claim{{ClaimText: "c"}}})
	}))
	defer srv.Close()

	c := NewHTTPCoordinator(srv.URL+"/", srv.Client(), 0, logger.Discard())
	resp, err := c.Send(context.Background(), GetCurrentVideoLies{VideoID: "abc"})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, resp.Success)
	assert.Len(t, resp.Lies, 1)
	assert.Equal(t, "getCurrentVideoLies", gjson.GetBytes(got, "type").String())
}

func TestHTTPCoordinator_GoneInvalidates(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	c := NewHTTPCoordinator(srv.URL, srv.Client(), 0, logger.Discard())
	resp, err := c.Send(context.Background(), Ping{})
	assert.ErrorIs(t, err, errors.ErrContextInvalidated)
	assert.Nil(t, resp)
	assert.True(t, c.Invalidated())

	resp, err = c.Send(context.Background(), Ping{})
	assert.ErrorIs(t, err, errors.ErrContextInvalidated)
	assert.Nil(t, resp)
	assert.Equal(t, int32(1), calls.Load(), "invalidated coordinator must not send")
}

func TestHTTPCoordinator_RefusedInvalidates(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := NewHTTPCoordinator("http://"+addr, nil, time.Second, logger.Discard())
	resp, err := c.Send(context.Background(), Ping{})
	assert.ErrorIs(t, err, errors.ErrContextInvalidated)
	assert.Nil(t, resp)
	assert.True(t, c.Invalidated())
}

func TestHTTPCoordinator_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewHTTPCoordinator(srv.URL, srv.Client(), 20*time.Millisecond, logger.Discard())
	_, err := c.Send(context.Background(), Ping{})
	require.Error(t, err)
	assert.Equal(t, "Message timeout", err.Error())
	assert.False(t, c.Invalidated())
}

func TestResponse_LiesField(t *testing.T) {
	tests := []struct {
		name string
		resp Response
		want string
	}{
		{"no lies field", Response{Success: true}, `{"success":true}`},
		{"empty analysis", Response{Success: true, Lies: []model.Claim{}}, `{"success":true,"lies":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.resp)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}

	data, err := json.Marshal(&Response{Success: true, Lies: []model.Claim{{ClaimText: "x"}}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), gjson.GetBytes(data, "lies.#").Int())
}

func TestServer_Routes(t *testing.T) {
	var handled Message
	s := NewServer(HandlerFunc(func(_ context.Context, m Message) Response {
		handled = m
		return Response{Success: true, Loaded: true}
	}), logger.Discard())

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", gjson.Get(rec.Body.String(), "status").String())

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/messages", bytes.NewBufferString(`{"type":"skipLiesToggle","enabled":true}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, SkipLiesToggle{Enabled: true}, handled)
	assert.JSONEq(t, `{"success":true,"loaded":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/messages", bytes.NewBufferString(`{"type":"somethingElse"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Message received"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/messages", bytes.NewBufferString(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, gjson.Get(rec.Body.String(), "success").Bool())
}

func TestRecorder(t *testing.T) {
	r := &Recorder{Reply: func(Message) *Response { return &Response{Success: true} }}
	resp, err := r.Send(context.Background(), SeekTo{Time: 3})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, []Message{SeekTo{Time: 3}}, r.Messages())
}
