package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"zapcast/internal/core/session"
	"zapcast/platform/logger"
)

type fakeController struct {
	mu        sync.Mutex
	started   chan string
	ownerByID map[string]string
	startErr  error
	snapshots map[string]session.Snapshot
}

func newFakeController() *fakeController {
	return &fakeController{
		started:   make(chan string, 8),
		ownerByID: make(map[string]string),
		snapshots: make(map[string]session.Snapshot),
	}
}

func (c *fakeController) StartSession(ctx context.Context, sessionID, ownerID string) error {
	c.mu.Lock()
	err := c.startErr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.started <- sessionID
	return nil
}

func (c *fakeController) Disconnect(sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.ownerByID[sessionID]; !ok {
		return session.ErrSessionNotFound
	}
	return nil
}

func (c *fakeController) Status(sessionID string) (session.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snap, ok := c.snapshots[sessionID]; ok {
		return snap, nil
	}
	return session.Snapshot{}, session.ErrSessionNotFound
}

func (c *fakeController) Authorize(sessionID, ownerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	owner, ok := c.ownerByID[sessionID]
	if !ok {
		return nil
	}
	if owner != ownerID {
		return session.ErrNotSessionOwner
	}
	return nil
}

type harness struct {
	hub        *Hub
	controller *fakeController
	server     *httptest.Server
}

func newHarness(t *testing.T, userID string) *harness {
	t.Helper()

	log := logger.New(logger.TestConfig())
	hub := NewHub(log, 15*time.Minute)
	go hub.Run()

	controller := newFakeController()
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, userID, controller, log)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))
	t.Cleanup(server.Close)

	return &harness{hub: hub, controller: controller, server: server}
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) ServerFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame ServerFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

func sendFrame(t *testing.T, conn *websocket.Conn, frame ClientFrame) {
	t.Helper()
	if err := conn.WriteJSON(frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func waitStarted(t *testing.T, controller *fakeController, sessionID string) {
	t.Helper()
	select {
	case id := <-controller.started:
		if id != sessionID {
			t.Fatalf("started session %s, want %s", id, sessionID)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("StartSession for %s never called", sessionID)
	}
}

func TestConnectFlowDeliversFramesInOrder(t *testing.T) {
	h := newHarness(t, "u1")
	conn := h.dial(t)

	sendFrame(t, conn, ClientFrame{Type: FrameConnect, SessionID: "s1", UserID: "u1"})
	waitStarted(t, h.controller, "s1")

	h.hub.SessionConnecting("s1")
	h.hub.SessionQRReady("s1", "qr-payload")
	h.hub.SessionConnected("s1", "5511988887777")

	frame := readFrame(t, conn)
	if frame.Type != FrameConnecting || frame.SessionID != "s1" {
		t.Fatalf("frame 1 = %+v, want connecting", frame)
	}

	frame = readFrame(t, conn)
	if frame.Type != FrameQRReady || frame.QRCode != "qr-payload" {
		t.Fatalf("frame 2 = %+v, want qr_ready with payload", frame)
	}

	frame = readFrame(t, conn)
	if frame.Type != FrameConnected || frame.PhoneNumber != "5511988887777" {
		t.Fatalf("frame 3 = %+v, want connected with phone", frame)
	}
}

func TestDisconnectedFrameCarriesRetryability(t *testing.T) {
	h := newHarness(t, "u1")
	conn := h.dial(t)

	sendFrame(t, conn, ClientFrame{Type: FrameConnect, SessionID: "s1"})
	waitStarted(t, h.controller, "s1")

	h.hub.SessionDisconnected("s1", "connection to whatsapp lost", true)

	frame := readFrame(t, conn)
	if frame.Type != FrameDisconnected {
		t.Fatalf("frame = %+v, want disconnected", frame)
	}
	if frame.CanRetry == nil || !*frame.CanRetry {
		t.Errorf("canRetry = %v, want true", frame.CanRetry)
	}
	if frame.Message == "" {
		t.Error("disconnected frame must carry a message")
	}
}

func TestNonRetryableDisconnectCarriesCooldown(t *testing.T) {
	h := newHarness(t, "u1")
	conn := h.dial(t)

	sendFrame(t, conn, ClientFrame{Type: FrameConnect, SessionID: "s1"})
	waitStarted(t, h.controller, "s1")

	h.hub.SessionDisconnected("s1", "whatsapp rejected the stored credentials", false)

	frame := readFrame(t, conn)
	if frame.Type != FrameDisconnected {
		t.Fatalf("frame = %+v, want disconnected", frame)
	}
	if frame.CanRetry == nil || *frame.CanRetry {
		t.Errorf("canRetry = %v, want false", frame.CanRetry)
	}
	if frame.RetryAfterSeconds != 15*60 {
		t.Errorf("retryAfterSeconds = %d, want %d", frame.RetryAfterSeconds, 15*60)
	}

	// Desconexões retryable não anunciam cool-down
	h.hub.SessionDisconnected("s1", "connection to whatsapp lost", true)
	frame = readFrame(t, conn)
	if frame.RetryAfterSeconds != 0 {
		t.Errorf("retryable disconnect carries retryAfterSeconds = %d", frame.RetryAfterSeconds)
	}
}

func TestSubscribersOnlyReceiveTheirSessions(t *testing.T) {
	h := newHarness(t, "u1")
	conn := h.dial(t)

	sendFrame(t, conn, ClientFrame{Type: FrameConnect, SessionID: "s1"})
	waitStarted(t, h.controller, "s1")

	// Frames de outra sessão não vazam para este assinante
	h.hub.SessionConnecting("other")
	h.hub.SessionConnecting("s1")

	frame := readFrame(t, conn)
	if frame.SessionID != "s1" {
		t.Fatalf("received frame for session %s", frame.SessionID)
	}
}

func TestTwoSubscribersBothReceiveFrames(t *testing.T) {
	h := newHarness(t, "u1")
	first := h.dial(t)
	second := h.dial(t)

	sendFrame(t, first, ClientFrame{Type: FrameConnect, SessionID: "s1"})
	waitStarted(t, h.controller, "s1")
	sendFrame(t, second, ClientFrame{Type: FrameConnect, SessionID: "s1"})
	waitStarted(t, h.controller, "s1")

	h.hub.SessionQRReady("s1", "qr")

	for _, conn := range []*websocket.Conn{first, second} {
		frame := readFrame(t, conn)
		if frame.Type != FrameQRReady {
			t.Fatalf("frame = %+v, want qr_ready", frame)
		}
	}
}

func TestConnectRejectsForeignSession(t *testing.T) {
	h := newHarness(t, "u2")
	h.controller.ownerByID["s1"] = "u1"

	conn := h.dial(t)
	sendFrame(t, conn, ClientFrame{Type: FrameConnect, SessionID: "s1"})

	frame := readFrame(t, conn)
	if frame.Type != FrameError {
		t.Fatalf("frame = %+v, want error", frame)
	}

	select {
	case <-h.controller.started:
		t.Fatal("StartSession must not run for a foreign session")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestConnectRejectsMismatchedUserID(t *testing.T) {
	h := newHarness(t, "u1")
	conn := h.dial(t)

	sendFrame(t, conn, ClientFrame{Type: FrameConnect, SessionID: "s1", UserID: "someone-else"})

	frame := readFrame(t, conn)
	if frame.Type != FrameError {
		t.Fatalf("frame = %+v, want error", frame)
	}
}

func TestCheckStatusRepliesWithSnapshot(t *testing.T) {
	h := newHarness(t, "u1")
	h.controller.snapshots["s1"] = session.Snapshot{
		ID:          "s1",
		OwnerID:     "u1",
		Status:      session.StatusConnected,
		PhoneNumber: "5511988887777",
	}

	conn := h.dial(t)
	sendFrame(t, conn, ClientFrame{Type: FrameCheckStatus, SessionID: "s1"})

	frame := readFrame(t, conn)
	if frame.Type != FrameStatusUpdate {
		t.Fatalf("frame = %+v, want status_update", frame)
	}
	if frame.Status != string(session.StatusConnected) || frame.PhoneNumber != "5511988887777" {
		t.Errorf("frame = %+v", frame)
	}
}

func TestCheckStatusUnknownSession(t *testing.T) {
	h := newHarness(t, "u1")
	conn := h.dial(t)

	sendFrame(t, conn, ClientFrame{Type: FrameCheckStatus, SessionID: "ghost"})

	frame := readFrame(t, conn)
	if frame.Type != FrameError {
		t.Fatalf("frame = %+v, want error", frame)
	}
}

func TestMalformedFrameProducesError(t *testing.T) {
	h := newHarness(t, "u1")
	conn := h.dial(t)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{broken")); err != nil {
		t.Fatal(err)
	}

	frame := readFrame(t, conn)
	if frame.Type != FrameError {
		t.Fatalf("frame = %+v, want error", frame)
	}
}

func TestInvalidFramesAreRejectedBeforeDispatch(t *testing.T) {
	h := newHarness(t, "u1")
	conn := h.dial(t)

	frames := []ClientFrame{
		{Type: "reboot", SessionID: "s1"},
		{Type: FrameConnect},
		{Type: FrameConnect, SessionID: strings.Repeat("x", 65)},
	}
	for _, f := range frames {
		sendFrame(t, conn, f)
		reply := readFrame(t, conn)
		if reply.Type != FrameError {
			t.Fatalf("frame %+v accepted, reply = %+v", f, reply)
		}
	}

	select {
	case <-h.controller.started:
		t.Fatal("invalid frame must never reach the controller")
	case <-time.After(100 * time.Millisecond):
	}
}
