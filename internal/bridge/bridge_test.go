package bridge

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mocapkit/mocapctl/internal/testutil/testlog"
)

func startBridge(t *testing.T) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	t.Cleanup(hub.Close)

	router := gin.New()
	router.GET("/stream", hub.Handle)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return hub, "ws" + strings.TrimPrefix(server.URL, "http") + "/stream"
}

func subscribe(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber count = %d, want %d", hub.SubscriberCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	testlog.Start(t)

	hub, url := startBridge(t)
	first := subscribe(t, url)
	second := subscribe(t, url)
	waitForSubscribers(t, hub, 2)

	nodes := []NodeSample{{
		Key:          4,
		Name:         "Hips",
		Quaternion:   [4]float32{1, 0, 0, 0},
		Euler:        [3]float32{0, 0, 0},
		Acceleration: [3]float32{0, -9.81, 0},
	}}
	when := time.Now()
	hub.Broadcast(when, nodes)

	for _, conn := range []*websocket.Conn{first, second} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if frame.Session != hub.Session() {
			t.Fatalf("session = %q, want %q", frame.Session, hub.Session())
		}
		if frame.Seq != 1 {
			t.Fatalf("seq = %d, want 1", frame.Seq)
		}
		if len(frame.Nodes) != 1 || frame.Nodes[0].Name != "Hips" || frame.Nodes[0].Key != 4 {
			t.Fatalf("nodes = %+v, want one Hips sample", frame.Nodes)
		}
	}
}

func TestSequenceNumbersIncrease(t *testing.T) {
	testlog.Start(t)

	hub, url := startBridge(t)
	conn := subscribe(t, url)
	waitForSubscribers(t, hub, 1)

	hub.Broadcast(time.Now(), nil)
	hub.Broadcast(time.Now(), nil)

	for want := uint64(1); want <= 2; want++ {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read frame %d: %v", want, err)
		}
		if frame.Seq != want {
			t.Fatalf("seq = %d, want %d", frame.Seq, want)
		}
	}
}

func TestDisconnectedSubscriberIsDropped(t *testing.T) {
	testlog.Start(t)

	hub, url := startBridge(t)
	conn := subscribe(t, url)
	waitForSubscribers(t, hub, 1)

	_ = conn.Close()
	waitForSubscribers(t, hub, 0)

	// Broadcast into an empty hub must be a no-op.
	hub.Broadcast(time.Now(), nil)
}

func TestCloseRefusesNewWork(t *testing.T) {
	testlog.Start(t)

	hub, url := startBridge(t)
	conn := subscribe(t, url)
	waitForSubscribers(t, hub, 1)

	hub.Close()
	hub.Close()
	hub.Broadcast(time.Now(), nil)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected close after hub shutdown")
	}
}
