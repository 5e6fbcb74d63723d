package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"genesisbridge/pkg/bus"
	"genesisbridge/pkg/logger"
	"genesisbridge/pkg/serial"
)

// Mailbox request targets.
const (
	mailboxToAgent    = "agent"
	mailboxToGuest    = "genesis"
	mailboxToTelegram = "telegram"
)

const mailboxSenderName = "genesis-bridge"

type MailboxRequest struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}

type MailboxResponse struct {
	ID        string `json:"id"`
	InReplyTo string `json:"in_reply_to"`
	From      string `json:"from"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// GuestInjector writes tagged lines into the hosted process's input stream.
type GuestInjector interface {
	SendTagged(tag, payload string) error
}

// Messenger forwards text to the messaging platform.
type Messenger interface {
	Send(ctx context.Context, text string) error
}

// Mailbox scans a directory for JSON request files and dispatches them by
// target. Agent-bound requests go through the dispatch queue and are
// answered later via Respond; the other targets are handled inline. In every
// case the response file is written before the request file is deleted.
type Mailbox struct {
	dir       string
	interval  time.Duration
	queue     *bus.Queue
	guest     GuestInjector
	messenger Messenger

	mu       sync.Mutex
	inflight map[string]string // request id -> request file path
}

func NewMailbox(dir string, interval time.Duration, queue *bus.Queue, guest GuestInjector, messenger Messenger) (*Mailbox, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create mailbox directory: %w", err)
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Mailbox{
		dir:       dir,
		interval:  interval,
		queue:     queue,
		guest:     guest,
		messenger: messenger,
		inflight:  make(map[string]string),
	}, nil
}

// Start scans the mailbox until the context is cancelled.
func (m *Mailbox) Start(ctx context.Context) {
	logger.InfoCF("mailbox", "Watching mailbox", map[string]interface{}{
		"dir": m.dir,
	})
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.scan(ctx)
		}
	}
}

func (m *Mailbox) scan(ctx context.Context) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		logger.WarnCF("mailbox", "Scan failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	for _, e := range entries {
		name := e.Name()
		// Only req_*.json files belong to this protocol; anything else in
		// the shared directory is left alone.
		if e.IsDir() || !strings.HasPrefix(name, "req_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		m.handleFile(ctx, filepath.Join(m.dir, name))
	}
}

func (m *Mailbox) handleFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.WarnCF("mailbox", "Unreadable request file", map[string]interface{}{
			"file":  path,
			"error": err.Error(),
		})
		return
	}

	var req MailboxRequest
	if err := json.Unmarshal(data, &req); err != nil || req.ID == "" {
		logger.WarnCF("mailbox", "Malformed request, discarding", map[string]interface{}{
			"file": path,
		})
		os.Remove(path)
		return
	}

	m.mu.Lock()
	if _, busy := m.inflight[req.ID]; busy {
		m.mu.Unlock()
		return
	}
	m.inflight[req.ID] = path
	m.mu.Unlock()

	logger.InfoCF("mailbox", "Request received", map[string]interface{}{
		"id":   req.ID,
		"from": req.From,
		"to":   req.To,
	})

	switch req.To {
	case mailboxToAgent:
		// Answered asynchronously via Respond once the agent replies. If
		// the queue is saturated the id is released and the request file
		// stays on disk, so the next scan retries it.
		accepted := m.queue.Publish(bus.DispatchRequest{
			Source:    bus.SourceMailbox,
			Target:    bus.TargetAgent,
			Content:   req.Message,
			MailboxID: req.ID,
			SenderID:  req.From,
		})
		if !accepted {
			m.mu.Lock()
			delete(m.inflight, req.ID)
			m.mu.Unlock()
			logger.WarnCF("mailbox", "Dispatch deferred, queue full", map[string]interface{}{
				"id": req.ID,
			})
		}
	case mailboxToGuest:
		payload := req.Message
		if req.From != "" {
			payload = req.From + ": " + req.Message
		}
		reply := "Delivered to genesis."
		if err := m.guest.SendTagged(serial.TagInbox, payload); err != nil {
			reply = "[ERROR] Delivery to genesis failed: " + err.Error()
		}
		m.finish(req.ID, reply)
	case mailboxToTelegram:
		reply := "Forwarded to telegram."
		if err := m.messenger.Send(ctx, req.Message); err != nil {
			reply = "[ERROR] Telegram forward failed: " + err.Error()
		}
		m.finish(req.ID, reply)
	default:
		m.finish(req.ID, fmt.Sprintf("[ERROR] Unknown target %q", req.To))
	}
}

// Respond completes an agent-bound request: the response file is written,
// then the request file is deleted and the id released.
func (m *Mailbox) Respond(id, message string) error {
	return m.finish(id, message)
}

func (m *Mailbox) finish(id, message string) error {
	m.mu.Lock()
	path, ok := m.inflight[id]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("no in-flight mailbox request %s", id)
	}

	resp := MailboxResponse{
		ID:        uuid.New().String(),
		InReplyTo: id,
		From:      mailboxSenderName,
		Message:   message,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	respPath := filepath.Join(m.dir, "resp_"+id+".json")
	if err := os.WriteFile(respPath, data, 0644); err != nil {
		return fmt.Errorf("write mailbox response: %w", err)
	}

	// Response exists on disk; now the request can go.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.WarnCF("mailbox", "Failed to remove request file", map[string]interface{}{
			"file":  path,
			"error": err.Error(),
		})
	}

	m.mu.Lock()
	delete(m.inflight, id)
	m.mu.Unlock()
	return nil
}
