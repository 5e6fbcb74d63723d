package bridge

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"genesisbridge/pkg/logger"
	"genesisbridge/pkg/serial"
	"genesisbridge/pkg/usage"
)

// RunConsole drives the local operator console. Plain lines are injected
// into the guest's inbox; slash commands are handled by the bridge itself.
func (b *Bridge) RunConsole(ctx context.Context) {
	rl, err := readline.New("genesis> ")
	if err != nil {
		logger.WarnCF("console", "Console unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	defer rl.Close()

	for {
		if ctx.Err() != nil {
			return
		}
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			b.Shutdown()
			return
		}
		if err == io.EOF || err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			b.consoleCommand(line)
			continue
		}
		b.writer.SendTagged(serial.TagInbox, "operator: "+line)
	}
}

func (b *Bridge) consoleCommand(line string) {
	parts := strings.Fields(line)
	switch parts[0] {
	case "/status":
		fmt.Println(b.summary.Render())
	case "/mem":
		lines, err := b.store.MemoryLines()
		if err != nil {
			fmt.Printf("memory unavailable: %v\n", err)
			return
		}
		fmt.Printf("%d memory entries\n", len(lines))
		for _, l := range lines {
			fmt.Println("  " + l)
		}
	case "/checkpoint":
		label := "manual"
		if len(parts) > 1 {
			label = strings.Join(parts[1:], " ")
		}
		id, err := b.store.Checkpoint(label)
		if err != nil {
			fmt.Printf("checkpoint failed: %v\n", err)
			return
		}
		fmt.Println("checkpoint created: " + id)
	case "/checkpoints":
		list, err := b.store.ListCheckpoints()
		if err != nil {
			fmt.Printf("list failed: %v\n", err)
			return
		}
		if len(list) == 0 {
			fmt.Println("no checkpoints")
			return
		}
		for _, m := range list {
			fmt.Printf("  %s  %s  (%s)\n", m.ID, m.Label, m.Timestamp)
		}
	case "/restore":
		if len(parts) != 2 {
			fmt.Println("usage: /restore <checkpoint-id>")
			return
		}
		if err := b.store.RestoreCheckpoint(parts[1]); err != nil {
			fmt.Printf("restore failed: %v\n", err)
			return
		}
		fmt.Println("restored " + parts[1] + "; memory takes effect on next replay")
	case "/usage":
		fmt.Println("today: " + usage.FormatAggregate(b.usage.Today()))
		day := time.Now().Format("2006-01-02")
		names, byProvider := b.usage.ProviderBreakdown(day)
		for _, name := range names {
			fmt.Printf("  %-10s %s\n", name, usage.FormatAggregate(byProvider[name]))
		}
	case "/quit":
		b.Shutdown()
	case "/help":
		fmt.Println("commands: /status /mem /checkpoint [label] /checkpoints /restore <id> /usage /quit")
		fmt.Println("anything else is delivered to the guest's inbox")
	default:
		fmt.Println("unknown command " + parts[0] + " (try /help)")
	}
}
