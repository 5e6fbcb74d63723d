package channels

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"genesisbridge/pkg/bus"
	"genesisbridge/pkg/serial"
)

type stubInjector struct {
	mu   sync.Mutex
	sent [][2]string
}

func (s *stubInjector) SendTagged(tag, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, [2]string{tag, payload})
	return nil
}

type stubMessenger struct {
	mu   sync.Mutex
	sent []string
}

func (s *stubMessenger) Send(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, text)
	return nil
}

func newTestMailbox(t *testing.T) (*Mailbox, *bus.Queue, *stubInjector, *stubMessenger) {
	t.Helper()
	queue := bus.NewQueue(8)
	guest := &stubInjector{}
	messenger := &stubMessenger{}
	m, err := NewMailbox(t.TempDir(), time.Second, queue, guest, messenger)
	if err != nil {
		t.Fatalf("NewMailbox failed: %v", err)
	}
	return m, queue, guest, messenger
}

func writeRequest(t *testing.T, dir string, req MailboxRequest) string {
	t.Helper()
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	path := filepath.Join(dir, "req_"+req.ID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write request: %v", err)
	}
	return path
}

func readResponse(t *testing.T, dir, id string) MailboxResponse {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "resp_"+id+".json"))
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	var resp MailboxResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return resp
}

func TestTelegramRequestRespondsAndDeletes(t *testing.T) {
	m, _, _, messenger := newTestMailbox(t)

	path := writeRequest(t, m.dir, MailboxRequest{ID: "42", From: "thomas", To: "telegram", Message: "hi"})
	m.scan(context.Background())

	messenger.mu.Lock()
	sent := append([]string(nil), messenger.sent...)
	messenger.mu.Unlock()
	if len(sent) != 1 || sent[0] != "hi" {
		t.Errorf("expected forwarded message, got %v", sent)
	}

	resp := readResponse(t, m.dir, "42")
	if resp.InReplyTo != "42" {
		t.Errorf("expected in_reply_to 42, got %q", resp.InReplyTo)
	}
	if resp.From != mailboxSenderName {
		t.Errorf("unexpected responder: %q", resp.From)
	}
	if resp.ID == "" || resp.ID == "42" {
		t.Errorf("response needs its own id, got %q", resp.ID)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected request file deleted after response")
	}
}

func TestGuestRequestInjectsInbox(t *testing.T) {
	m, _, guest, _ := newTestMailbox(t)

	writeRequest(t, m.dir, MailboxRequest{ID: "7", From: "robot", To: "genesis", Message: "battery low"})
	m.scan(context.Background())

	guest.mu.Lock()
	sent := append([][2]string(nil), guest.sent...)
	guest.mu.Unlock()
	if len(sent) != 1 {
		t.Fatalf("expected one injection, got %v", sent)
	}
	if sent[0][0] != serial.TagInbox || sent[0][1] != "robot: battery low" {
		t.Errorf("unexpected injection: %v", sent[0])
	}
	if _, err := os.Stat(filepath.Join(m.dir, "resp_7.json")); err != nil {
		t.Errorf("expected response file: %v", err)
	}
}

func TestAgentRequestQueuedAndAnsweredViaRespond(t *testing.T) {
	m, queue, _, _ := newTestMailbox(t)
	ctx := context.Background()

	path := writeRequest(t, m.dir, MailboxRequest{ID: "a1", From: "thomas", To: "agent", Message: "what is your goal?"})
	m.scan(ctx)

	req, ok := queue.Consume(ctx, 500*time.Millisecond)
	if !ok {
		t.Fatal("expected queued agent request")
	}
	if req.Target != bus.TargetAgent || req.MailboxID != "a1" || req.Content != "what is your goal?" {
		t.Errorf("unexpected request: %+v", req)
	}

	// Request stays on disk until the agent answers, and is not re-dispatched.
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("request file should remain while in flight: %v", err)
	}
	m.scan(ctx)
	if _, ok := queue.Consume(ctx, 100*time.Millisecond); ok {
		t.Error("in-flight request must not be dispatched twice")
	}

	if err := m.Respond("a1", "To pass the self test."); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	resp := readResponse(t, m.dir, "a1")
	if resp.Message != "To pass the self test." {
		t.Errorf("unexpected response message: %q", resp.Message)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected request deleted after Respond")
	}

	// Same id can be used again once released.
	writeRequest(t, m.dir, MailboxRequest{ID: "a1", From: "thomas", To: "agent", Message: "again"})
	m.scan(ctx)
	if _, ok := queue.Consume(ctx, 500*time.Millisecond); !ok {
		t.Error("expected released id to dispatch again")
	}
}

func TestFullQueueLeavesRequestForNextScan(t *testing.T) {
	guest := &stubInjector{}
	messenger := &stubMessenger{}
	queue := bus.NewQueue(1)
	m, err := NewMailbox(t.TempDir(), time.Second, queue, guest, messenger)
	if err != nil {
		t.Fatalf("NewMailbox failed: %v", err)
	}
	ctx := context.Background()

	// Saturate the queue before the scan.
	if !queue.Publish(bus.DispatchRequest{Content: "filler"}) {
		t.Fatal("filler publish should succeed")
	}
	path := writeRequest(t, m.dir, MailboxRequest{ID: "x1", From: "thomas", To: "agent", Message: "hello"})
	m.scan(ctx)

	// The request must survive undispatched: file still on disk, no
	// response written, nothing behind the filler.
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("request file should remain while queue is full: %v", err)
	}
	if _, err := os.Stat(filepath.Join(m.dir, "resp_x1.json")); !os.IsNotExist(err) {
		t.Error("no response may be written for an undispatched request")
	}
	if req, _ := queue.Consume(ctx, 100*time.Millisecond); req.Content != "filler" {
		t.Fatalf("expected only the filler in the queue, got %+v", req)
	}
	if _, ok := queue.Consume(ctx, 100*time.Millisecond); ok {
		t.Fatal("request must not have been enqueued while the queue was full")
	}

	// With capacity available again, the next scan picks it up.
	m.scan(ctx)
	req, ok := queue.Consume(ctx, 500*time.Millisecond)
	if !ok {
		t.Fatal("expected retry on the next scan")
	}
	if req.MailboxID != "x1" || req.Content != "hello" {
		t.Errorf("unexpected retried request: %+v", req)
	}
	if err := m.Respond("x1", "done"); err != nil {
		t.Fatalf("Respond after retry failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected request deleted after Respond")
	}
}

func TestForeignJSONFilesAreLeftAlone(t *testing.T) {
	m, queue, _, _ := newTestMailbox(t)

	path := filepath.Join(m.dir, "notes.json")
	if err := os.WriteFile(path, []byte(`{"unrelated": true}`), 0644); err != nil {
		t.Fatalf("write foreign file: %v", err)
	}
	m.scan(context.Background())

	if _, err := os.Stat(path); err != nil {
		t.Errorf("foreign json must survive the scan: %v", err)
	}
	if _, ok := queue.Consume(context.Background(), 100*time.Millisecond); ok {
		t.Error("foreign json must not dispatch")
	}
}

func TestMalformedRequestDeletedWithoutResponse(t *testing.T) {
	m, queue, _, _ := newTestMailbox(t)

	path := filepath.Join(m.dir, "req_bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write bad file: %v", err)
	}
	m.scan(context.Background())

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected malformed file deleted")
	}
	entries, _ := os.ReadDir(m.dir)
	if len(entries) != 0 {
		t.Errorf("expected no response for malformed request, found %v", entries)
	}
	if _, ok := queue.Consume(context.Background(), 100*time.Millisecond); ok {
		t.Error("malformed file must not dispatch")
	}
}

func TestResponseFilesAreSkippedByScan(t *testing.T) {
	m, queue, _, _ := newTestMailbox(t)

	writeRequest(t, m.dir, MailboxRequest{ID: "9", From: "x", To: "telegram", Message: "y"})
	m.scan(context.Background())
	// A second scan sees only resp_9.json and must leave it alone.
	m.scan(context.Background())

	if _, err := os.Stat(filepath.Join(m.dir, "resp_9.json")); err != nil {
		t.Errorf("response file should survive scans: %v", err)
	}
	if _, ok := queue.Consume(context.Background(), 100*time.Millisecond); ok {
		t.Error("nothing should be dispatched from response files")
	}
}
