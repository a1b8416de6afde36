package notify

import (
	"context"
	"sync"
)

const subscriberBuffer = 16

// Hub 程序內的廣播器，供 SSE 連線訂閱
type Hub struct {
	mu      sync.RWMutex
	clients map[string][]chan Message
	closed  bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string][]chan Message),
	}
}

// Subscribe 訂閱頻道，ctx 結束時自動移除並關閉 channel
func (h *Hub) Subscribe(ctx context.Context, channel string) <-chan Message {
	clientChan := make(chan Message, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(clientChan)
		return clientChan
	}
	h.clients[channel] = append(h.clients[channel], clientChan)
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.remove(channel, clientChan)
	}()

	return clientChan
}

// Emit 非阻塞廣播；訂閱者 buffer 滿時略過該訂閱者
func (h *Hub) Emit(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clientChan := range h.clients[msg.Channel] {
		select {
		case clientChan <- msg:
		default:
		}
	}
}

// Publish 讓 Hub 也能直接當作單機版 Notifier
func (h *Hub) Publish(ctx context.Context, msg Message) error {
	h.Emit(msg)
	return nil
}

func (h *Hub) ClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[channel])
}

// Close 關閉所有訂閱者的 channel，讓 SSE 連線結束；之後的 Subscribe 會拿到已關閉的 channel
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for _, clients := range h.clients {
		for _, ch := range clients {
			close(ch)
		}
	}
	h.clients = make(map[string][]chan Message)
}

// remove 已被 Close 清掉的 channel 不會再關閉一次
func (h *Hub) remove(channel string, clientChan chan Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[channel]
	for i, ch := range clients {
		if ch == clientChan {
			h.clients[channel] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(h.clients[channel]) == 0 {
		delete(h.clients, channel)
	}
}
