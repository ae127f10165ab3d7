package websocket

import (
	"errors"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_WritePumpFlushesThenCloses(t *testing.T) {
	conn := NewMockConnection()
	client := NewClient(NewHub(quietLogger(), nil), conn, testStream, "", quietLogger())

	client.send <- []byte(`{"type":"dashboard"}`)
	close(client.send)
	client.WritePump()

	written := conn.GetWrittenMessages()
	require.Len(t, written, 2)
	assert.Equal(t, websocket.TextMessage, written[0].Type)
	assert.JSONEq(t, `{"type":"dashboard"}`, string(written[0].Data))
	assert.Equal(t, websocket.CloseMessage, written[1].Type)
	assert.True(t, conn.IsClosed())
}

func TestClient_WritePumpPings(t *testing.T) {
	conn := NewMockConnection()
	cfg := testStream
	cfg.PingPeriod = 5 * time.Millisecond
	client := NewClient(NewHub(quietLogger(), nil), conn, cfg, "", quietLogger())

	done := make(chan struct{})
	go func() {
		client.WritePump()
		close(done)
	}()

	require.Eventually(t, func() bool {
		for _, m := range conn.GetWrittenMessages() {
			if m.Type == websocket.PingMessage {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	close(client.send)
	<-done
}

func TestClient_WritePumpStopsOnWriteError(t *testing.T) {
	conn := NewMockConnection()
	conn.WriteErr = errors.New("broken pipe")
	client := NewClient(NewHub(quietLogger(), nil), conn, testStream, "", quietLogger())

	client.send <- []byte("{}")
	client.WritePump()

	assert.True(t, conn.IsClosed())
}

func TestClient_ReadPumpUnregistersOnDisconnect(t *testing.T) {
	hub := startedHub(t, nil)
	conn := NewMockConnection()
	client := NewClient(hub, conn, testStream, "trace-1", quietLogger())
	hub.Register(client)
	receive(t, client)

	client.ReadPump()

	assertClosed(t, client)
	assert.Equal(t, 0, hub.ClientCount())
	assert.True(t, conn.IsClosed())
	assert.Equal(t, int64(maxMessageSize), conn.ReadLimit)
	assert.NotNil(t, conn.PongHandler)
	assert.False(t, conn.ReadDeadline.IsZero())
}

func TestClient_ReadPumpExtendsDeadlineOnHeartbeat(t *testing.T) {
	hub := startedHub(t, nil)
	conn := NewMockConnection()
	client := NewClient(hub, conn, testStream, "", quietLogger())
	hub.Register(client)
	receive(t, client)

	frames := 0
	conn.ReadMessageFunc = func() (int, []byte, error) {
		frames++
		if frames == 1 {
			return websocket.TextMessage, []byte(`{"type":"heartbeat"}`), nil
		}
		return 0, nil, &websocket.CloseError{Code: websocket.CloseGoingAway}
	}

	client.ReadPump()

	assert.Equal(t, 2, frames)
	assertClosed(t, client)
}

func TestClient_Serve(t *testing.T) {
	hub := startedHub(t, nil)
	conn := NewMockConnection()
	release := make(chan struct{})
	conn.ReadMessageFunc = func() (int, []byte, error) {
		<-release
		return 0, nil, errors.New("closed")
	}

	client := NewClient(hub, conn, testStream, "", quietLogger())
	client.Serve()

	require.Eventually(t, func() bool {
		for _, m := range conn.GetWrittenMessages() {
			if m.Type == websocket.TextMessage {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, hub.ClientCount())

	close(release)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}
