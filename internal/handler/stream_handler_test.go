package handler

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-gin-happenings/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamHandler_Stream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := notify.NewHub()
	router := gin.New()
	NewStreamHandler(hub).RegisterRoutes(router)

	server := httptest.NewServer(router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/streams/facts", nil)
	require.NoError(t, err)

	// 第一筆事件寫出前 response header 不會送出，所以在 goroutine 中等待
	respCh := make(chan *http.Response, 1)
	errCh := make(chan error, 1)
	go func() {
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			errCh <- err
			return
		}
		respCh <- resp
	}()

	require.Eventually(t, func() bool {
		return hub.ClientCount(notify.ChannelFacts) == 1
	}, 2*time.Second, 10*time.Millisecond)

	msg, err := notify.NewReplaceMessage(notify.ChannelFacts, "counter_happening_9", map[string]int{"seats_count": 10})
	require.NoError(t, err)
	hub.Emit(msg)

	var resp *http.Response
	select {
	case resp = <-respCh:
	case err := <-errCh:
		t.Fatalf("stream request failed: %v", err)
	case <-ctx.Done():
		t.Fatal("timeout 未收到 response")
	}
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(resp.Body)
	var event, data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}

	assert.Equal(t, notify.ActionReplace, event)
	assert.Contains(t, data, `"target":"counter_happening_9"`)
	assert.Contains(t, data, `"seats_count":10`)

	cancel()
	assert.Eventually(t, func() bool {
		return hub.ClientCount(notify.ChannelFacts) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStreamHandler_Stream_endsWhenHubCloses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := notify.NewHub()
	router := gin.New()
	NewStreamHandler(hub).RegisterRoutes(router)

	server := httptest.NewServer(router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/streams/facts", nil)
	require.NoError(t, err)

	bodyCh := make(chan error, 1)
	go func() {
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			bodyCh <- err
			return
		}
		defer resp.Body.Close()
		_, err = io.Copy(io.Discard, resp.Body)
		bodyCh <- err
	}()

	require.Eventually(t, func() bool {
		return hub.ClientCount(notify.ChannelFacts) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// 先送一筆讓 header 寫出，再關閉 hub
	msg, err := notify.NewReplaceMessage(notify.ChannelFacts, "counter_happening_9", map[string]int{"seats_count": 1})
	require.NoError(t, err)
	hub.Emit(msg)
	hub.Close()

	select {
	case err := <-bodyCh:
		assert.NoError(t, err, "hub 關閉後 stream 應正常結束")
	case <-ctx.Done():
		t.Fatal("hub 關閉後 stream 仍未結束")
	}
}
