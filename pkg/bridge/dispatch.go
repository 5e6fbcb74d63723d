package bridge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"genesisbridge/pkg/bus"
	"genesisbridge/pkg/logger"
	"genesisbridge/pkg/serial"
	"genesisbridge/pkg/utils"
)

const consumeTimeout = 500 * time.Millisecond

const haikuPrompt = "Write a haiku about what Genesis, a small operating system that is learning to think, might be experiencing right now. Reply with only the haiku."

const statusPrompt = "Summarize the current state of Genesis for its operator in a few short sentences. Use the system state from your context."

const ambitionPrompt = "Invent one short, concrete ambition for Genesis to pursue today. One sentence, no preamble."

// consumeQueue is the single consumer of the dispatch queue. Requests are
// handled in arrival order, one at a time.
func (b *Bridge) consumeQueue(ctx context.Context) {
	for {
		req, ok := b.queue.Consume(ctx, consumeTimeout)
		if !ok {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		b.dispatch(ctx, req)
	}
}

func (b *Bridge) dispatch(ctx context.Context, req bus.DispatchRequest) {
	logger.InfoCF("bridge", "Dispatching request", map[string]interface{}{
		"source":  string(req.Source),
		"target":  string(req.Target),
		"preview": utils.Truncate(req.Content, 60),
	})

	switch req.Target {
	case bus.TargetAgent:
		b.handleAgent(ctx, req)
	case bus.TargetHaiku:
		b.handlePrompt(ctx, haikuPrompt)
	case bus.TargetStatusSummary:
		b.handlePrompt(ctx, statusPrompt)
	case bus.TargetAmbition:
		b.handleAmbition(ctx)
	case bus.TargetMediaAnalysis:
		b.handleMedia(ctx, req)
	default:
		logger.WarnCF("bridge", "Unknown dispatch target", map[string]interface{}{
			"target": string(req.Target),
		})
	}
}

// handleAgent runs the tool loop and routes the reply back to wherever the
// request came from.
func (b *Bridge) handleAgent(ctx context.Context, req bus.DispatchRequest) {
	// Let the guest overhear the operator's message.
	if req.Source == bus.SourceTelegram && req.Content != "" {
		payload := req.Content
		if req.SenderID != "" {
			payload = req.SenderID + ": " + req.Content
		}
		b.writer.SendTagged(serial.TagTelegram, payload)
	}

	reply, err := b.loop.Process(ctx, req.Content, req.Attachment, req.MediaType)
	if err != nil {
		logger.ErrorCF("bridge", "Agent request failed", map[string]interface{}{
			"error": err.Error(),
		})
		reply = fmt.Sprintf("[ERROR] %v", err)
	}

	switch req.Source {
	case bus.SourceTelegram:
		b.notify.Reply(reply)
	case bus.SourceMailbox:
		if err := b.mailbox.Respond(req.MailboxID, reply); err != nil {
			logger.WarnCF("bridge", "Mailbox respond failed", map[string]interface{}{
				"id":    req.MailboxID,
				"error": err.Error(),
			})
		}
	default:
		b.writer.SendResponse(reply)
	}
}

// handlePrompt answers a fixed-shape request and types the reply into the
// guest.
func (b *Bridge) handlePrompt(ctx context.Context, prompt string) {
	reply, err := b.loop.Process(ctx, prompt, nil, "")
	if err != nil {
		b.writer.SendError(err.Error())
		return
	}
	b.writer.SendResponse(reply)
}

// handleAmbition generates a fresh ambition, persists it, loads it into the
// guest, and tells the operator.
func (b *Bridge) handleAmbition(ctx context.Context) {
	ambition, err := b.loop.Process(ctx, ambitionPrompt, nil, "")
	if err != nil {
		logger.ErrorCF("bridge", "Ambition generation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	ambition = strings.TrimSpace(ambition)
	if ambition == "" {
		return
	}

	if err := b.store.SetAmbition(ambition); err != nil {
		logger.ErrorCF("bridge", "Ambition persist failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	b.writer.SendTagged(serial.TagAmbitionLoad, ambition)
	b.notify.Notify("Morning ambition: " + ambition)
}

// handleMedia describes an image file the guest asked about.
func (b *Bridge) handleMedia(ctx context.Context, req bus.DispatchRequest) {
	path := strings.TrimSpace(req.MediaPath)
	if path == "" {
		b.writer.SendError("media analysis requested without a path")
		return
	}

	mediaType := ""
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		mediaType = "image/jpeg"
	case ".png":
		mediaType = "image/png"
	case ".gif":
		mediaType = "image/gif"
	case ".webp":
		mediaType = "image/webp"
	default:
		b.writer.SendError(fmt.Sprintf("unsupported media type: %s", path))
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		b.writer.SendError(fmt.Sprintf("cannot read media %s: %v", path, err))
		return
	}

	description, err := b.loop.Describe(ctx, data, mediaType, "Describe what is happening in this image.")
	if err != nil {
		b.writer.SendError(fmt.Sprintf("media analysis failed: %v", err))
		return
	}
	b.writer.SendResponse(description)
}
