package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"user-server/confs"
	"user-server/ws"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testConfig() *confs.Config {
	return &confs.Config{
		App:      confs.AppConfig{Name: "user-server", Version: "test", Addr: "127.0.0.1:0"},
		Database: confs.DatabaseConfig{Driver: confs.DriverMemory},
	}
}

func TestHealth(t *testing.T) {
	s := NewServer(testConfig(), nil, testLogger())

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","name":"user-server","version":"test"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := NewServer(testConfig(), nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestRoutes_UserLifecycle(t *testing.T) {
	s := NewServer(testConfig(), nil, testLogger())
	h := s.Handler()

	send := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	w := send(http.MethodPost, "/user", `{"email":"a@x.com","username":"a","password":"p"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = send(http.MethodPut, "/users/1", `{"email":"b@x.com","username":"b","password":"p"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = send(http.MethodGet, "/users", "")
	assert.JSONEq(t, `{"status":true,"data":[{"id":1,"email":"b@x.com","username":"b"}],"errors":null}`, w.Body.String())

	w = send(http.MethodDelete, "/users/1", "")
	assert.JSONEq(t, `{"status":true,"data":"User 1 deleted","errors":null}`, w.Body.String())
}

func TestUserEventsFeed(t *testing.T) {
	s := NewServer(testConfig(), nil, testLogger())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/users"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return len(s.hub.List()) == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(srv.URL+"/user", "application/json",
		strings.NewReader(`{"email":"a@x.com","username":"a","password":"secret"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.NotContains(t, string(msg), "secret")

	var ev ws.Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, "user.created", ev.Type)
	assert.Equal(t, map[string]interface{}{"id": float64(1), "email": "a@x.com", "username": "a"}, ev.Data)
}

func TestStart_StopsOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	cfg := testConfig()
	cfg.App.Addr = addr
	s := NewServer(cfg, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/users", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return len(s.hub.List()) == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}

	// subscribers are disconnected rather than left behind
	assert.Empty(t, s.hub.List())
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
