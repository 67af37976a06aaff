package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"signal_scanner/pkg/logger"
)

// MaxMessageLen is the Telegram limit for one text message.
const MaxMessageLen = 4096

type sender interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
}

// Telegram posts reports to one chat as Markdown.
type Telegram struct {
	bot    sender
	chatID int64
	limit  int
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	logger.Info("telegram: authorized as @%s", b.Self.UserName)
	return newTelegram(b, chatID), nil
}

func newTelegram(bot sender, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID, limit: MaxMessageLen}
}

// Notify sends text in as many messages as the length limit requires. It stops at the
// first failed chunk; nothing is resent.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	for _, chunk := range Chunk(text, t.limit) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbot.NewMessage(t.chatID, chunk)
		msg.ParseMode = tgbot.ModeMarkdown
		msg.DisableWebPagePreview = true
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	return nil
}

// Stdout is the notifier used when no bot is configured: reports go to the log.
type Stdout struct{}

func NewStdout() Stdout { return Stdout{} }

func (Stdout) Notify(_ context.Context, text string) error {
	logger.Info("report:\n%s", text)
	return nil
}

// Chunk splits text into pieces of at most limit runes, preferring line boundaries.
func Chunk(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		out []string
		cur strings.Builder
		n   int
	)
	flush := func() {
		if n > 0 {
			out = append(out, cur.String())
			cur.Reset()
			n = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		ln := utf8.RuneCountInString(line)
		if n+ln > limit {
			flush()
		}
		for ln > limit {
			head, rest := splitRunes(line, limit)
			out = append(out, head)
			line, ln = rest, ln-limit
		}
		cur.WriteString(line)
		n += ln
	}
	flush()
	return out
}

func splitRunes(s string, n int) (string, string) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}
