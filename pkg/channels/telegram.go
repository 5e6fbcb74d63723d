// Package channels connects the bridge to the outside world: the Telegram
// bot and the filesystem mailbox.
package channels

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"genesisbridge/pkg/bus"
	"genesisbridge/pkg/config"
	"genesisbridge/pkg/logger"
	"genesisbridge/pkg/utils"
)

const telegramMessageLimit = 4000

// TelegramChannel long-polls the bot API and funnels messages from the single
// allow-listed operator into the dispatch queue. With no token configured it
// runs in simulated mode: sends are logged and dropped, polling never starts.
type TelegramChannel struct {
	bot    *telego.Bot
	cfg    config.TelegramConfig
	queue  *bus.Queue
	client *http.Client

	mu     sync.Mutex
	chatID int64
	offset int64
}

func NewTelegramChannel(cfg config.TelegramConfig, queue *bus.Queue) (*TelegramChannel, error) {
	c := &TelegramChannel{
		cfg:    cfg,
		queue:  queue,
		client: &http.Client{Timeout: 60 * time.Second},
	}
	if cfg.ChatID != "" {
		id, err := strconv.ParseInt(cfg.ChatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram chat_id %q: %w", cfg.ChatID, err)
		}
		c.chatID = id
	}

	if !cfg.Enabled || cfg.Token == "" {
		logger.InfoC("telegram", "No bot token configured, running in simulated mode")
		return c, nil
	}

	bot, err := telego.NewBot(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	c.bot = bot
	return c, nil
}

// Active reports whether a real bot connection exists.
func (c *TelegramChannel) Active() bool {
	return c.bot != nil
}

// Start runs the long-poll loop until the context is cancelled. Each request
// asks only for updates after the highest one seen so far.
func (c *TelegramChannel) Start(ctx context.Context) {
	if c.bot == nil {
		return
	}
	logger.InfoC("telegram", "Starting Telegram long-poll loop...")

	timeout := c.cfg.PollTimeout
	if timeout <= 0 {
		timeout = 30
	}

	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := c.bot.GetUpdates(ctx, &telego.GetUpdatesParams{
			Offset:  c.nextOffset(),
			Timeout: timeout,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.WarnCF("telegram", "Poll failed, backing off", map[string]interface{}{
				"error": err.Error(),
			})
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			c.advanceOffset(int64(update.UpdateID))
			if update.Message != nil {
				c.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (c *TelegramChannel) nextOffset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.offset)
}

// advanceOffset records a processed update id so the next poll requests only
// updates after it.
func (c *TelegramChannel) advanceOffset(updateID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if updateID >= c.offset {
		c.offset = updateID + 1
	}
}

func (c *TelegramChannel) handleMessage(ctx context.Context, msg *telego.Message) {
	if msg.From == nil || !c.senderAllowed(msg.From) {
		// Everyone but the operator is silently ignored.
		return
	}

	c.mu.Lock()
	if c.chatID == 0 {
		c.chatID = msg.Chat.ID
	}
	c.mu.Unlock()

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	req := bus.DispatchRequest{
		Source:   bus.SourceTelegram,
		Target:   bus.TargetAgent,
		Content:  text,
		SenderID: strconv.FormatInt(msg.From.ID, 10),
	}

	if len(msg.Photo) > 0 {
		// Sizes are ordered smallest first; take the largest.
		photo := msg.Photo[len(msg.Photo)-1]
		data, err := c.downloadFileBytes(ctx, photo.FileID)
		if err != nil {
			logger.ErrorCF("telegram", "Failed to download photo", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			req.Attachment = data
			req.MediaType = "image/jpeg"
		}
	}

	if req.Content == "" && req.Attachment == nil {
		return
	}

	logger.InfoCF("telegram", "Message received", map[string]interface{}{
		"from":    req.SenderID,
		"preview": utils.Truncate(req.Content, 60),
	})
	c.queue.Publish(req)
}

func (c *TelegramChannel) senderAllowed(from *telego.User) bool {
	if len(c.cfg.AllowFrom) == 0 {
		return false
	}
	id := strconv.FormatInt(from.ID, 10)
	for _, allowed := range c.cfg.AllowFrom {
		if allowed == id || (from.Username != "" && strings.EqualFold(allowed, from.Username)) {
			return true
		}
	}
	return false
}

// downloadFileBytes resolves the file location via GetFile, then fetches the
// bytes from the download URL.
func (c *TelegramChannel) downloadFileBytes(ctx context.Context, fileID string) ([]byte, error) {
	file, err := c.bot.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	if file.FilePath == "" {
		return nil, fmt.Errorf("file %s has no path", fileID)
	}

	url := c.bot.FileDownloadURL(file.FilePath)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Send delivers text to the operator chat, splitting at the message length
// limit. In simulated mode the message is logged and dropped.
func (c *TelegramChannel) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if c.bot == nil {
		logger.InfoCF("telegram", "Simulated send", map[string]interface{}{
			"text": utils.Truncate(text, 120),
		})
		return nil
	}

	chatID := c.targetChat()
	if chatID == 0 {
		return fmt.Errorf("no telegram chat known yet")
	}
	for _, chunk := range splitMessage(text, telegramMessageLimit) {
		if _, err := c.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), chunk)); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
	return nil
}

// SendPhoto delivers an image with an optional caption.
func (c *TelegramChannel) SendPhoto(ctx context.Context, data []byte, caption string) error {
	if c.bot == nil {
		logger.InfoCF("telegram", "Simulated photo send", map[string]interface{}{
			"bytes":   len(data),
			"caption": utils.Truncate(caption, 60),
		})
		return nil
	}

	chatID := c.targetChat()
	if chatID == 0 {
		return fmt.Errorf("no telegram chat known yet")
	}
	params := tu.Photo(tu.ID(chatID), tu.File(tu.NameReader(bytes.NewReader(data), "image.png")))
	if caption != "" {
		params = params.WithCaption(utils.Truncate(caption, 1024))
	}
	if _, err := c.bot.SendPhoto(ctx, params); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	return nil
}

func (c *TelegramChannel) targetChat() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chatID
}

func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut < limit/2 {
			cut = limit
		}
		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
