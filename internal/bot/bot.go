// Package bot routes Telegram commands to the report pipeline and delivers
// the results as chat messages or documents.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/KaramelBytes/sheetpulse/internal/pipeline"
)

// Sender delivers one outbound message. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Service is the set of report operations a command can trigger.
type Service interface {
	SummaryText(ctx context.Context) (string, error)
	DetailedStatsText(ctx context.Context) (string, error)
	Export(ctx context.Context) (*pipeline.Export, error)
	FilteredByCategory(ctx context.Context, category string) (*pipeline.CategoryResult, error)
}

// Bot handles updates. It is safe for concurrent use.
type Bot struct {
	api     Sender
	svc     Service
	log     logrus.FieldLogger
	limiter *rate.Limiter
	format  string
}

// Option customises a Bot.
type Option func(*Bot)

// WithLogger sets the logger used for per-command entries.
func WithLogger(l logrus.FieldLogger) Option { return func(b *Bot) { b.log = l } }

// WithSendRate limits outbound sends to perSec messages per second across all
// chats. Zero or negative disables the limit.
func WithSendRate(perSec float64) Option {
	return func(b *Bot) {
		if perSec <= 0 {
			b.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(perSec)
		if burst < 1 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// WithExportFormat names the file type in /csv progress and error notices.
func WithExportFormat(format string) Option {
	return func(b *Bot) { b.format = format }
}

// New returns a bot that answers through api using svc.
func New(api Sender, svc Service, opts ...Option) *Bot {
	l := logrus.New()
	l.SetOutput(io.Discard)
	b := &Bot{api: api, svc: svc, log: l, format: "csv"}
	WithSendRate(20)(b)
	for _, o := range opts {
		o(b)
	}
	return b
}

// HandleUpdate dispatches one update. Updates that are not commands are
// ignored.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}
	command := strings.ToLower(msg.Command())
	entry := b.log.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"command":    command,
		"chat_id":    msg.Chat.ID,
	})
	start := time.Now()
	entry.Info("handling command")

	r := &reply{bot: b, ctx: ctx, chatID: msg.Chat.ID, log: entry}
	switch command {
	case "start":
		r.markdown(welcomeText)
	case "help":
		r.markdown(helpText)
	case "data":
		b.handleData(r)
	case "stats":
		b.handleStats(r)
	case "csv":
		b.handleExport(r)
	case "tm":
		b.handleCategory(r, strings.Join(strings.Fields(msg.CommandArguments()), " "))
	default:
		r.markdown(helpText)
	}
	entry.WithField("elapsed", time.Since(start)).Info("command done")
}

func (b *Bot) handleData(r *reply) {
	r.text(progressData)
	text, err := b.svc.SummaryText(r.ctx)
	if err != nil {
		r.fail(err, fmt.Sprintf(failData, err))
		return
	}
	r.markdown(text)
}

func (b *Bot) handleStats(r *reply) {
	r.text(progressStats)
	text, err := b.svc.DetailedStatsText(r.ctx)
	if err != nil {
		if msg, ok := stageMessage(err, pipeline.StageStats); ok {
			r.fail(err, msg)
			return
		}
		r.fail(err, fmt.Sprintf(failStats, err))
		return
	}
	r.markdown(text)
}

func (b *Bot) handleExport(r *reply) {
	label := strings.ToUpper(b.format)
	r.text(fmt.Sprintf(progressFile, label))
	exp, err := b.svc.Export(r.ctx)
	if err != nil {
		r.fail(err, fmt.Sprintf(failFile, label, err))
		return
	}
	doc := tgbotapi.NewDocument(r.chatID, tgbotapi.FileBytes{Name: exp.Filename, Bytes: exp.Data})
	doc.Caption = fmt.Sprintf(documentCaption, exp.CreatedAt.Format("2006-01-02 15:04"))
	r.log.WithFields(logrus.Fields{"file": exp.Filename, "rows": exp.Rows}).Info("sending export")
	r.send(doc)
}

func (b *Bot) handleCategory(r *reply, category string) {
	if category == "" {
		r.markdown(tmUsageText)
		return
	}
	r.text(fmt.Sprintf(progressTM, category))
	res, err := b.svc.FilteredByCategory(r.ctx, category)
	if err != nil {
		if msg, ok := stageMessage(err, pipeline.StageCategory); ok {
			r.fail(err, msg)
			return
		}
		r.fail(err, fmt.Sprintf(failTM, category, err))
		return
	}
	r.markdown(res.Text)
}

// stageMessage renders errors raised by the view itself (rather than by the
// fetch or filters) without the generic prefix.
func stageMessage(err error, stage pipeline.Stage) (string, bool) {
	var pe *pipeline.Error
	if errors.As(err, &pe) && pe.Stage == stage {
		return "❌ " + pe.Err.Error(), true
	}
	return "", false
}

// reply sends messages to the chat a command came from.
type reply struct {
	bot    *Bot
	ctx    context.Context
	chatID int64
	log    logrus.FieldLogger
}

func (r *reply) text(s string) {
	r.send(tgbotapi.NewMessage(r.chatID, s))
}

// markdown sends s with Markdown parsing. Telegram rejects text whose markup
// does not balance (names with underscores, for instance), so a failed send is
// repeated once as plain text.
func (r *reply) markdown(s string) {
	msg := tgbotapi.NewMessage(r.chatID, s)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if err := r.send(msg); err != nil && r.ctx.Err() == nil {
		r.send(tgbotapi.NewMessage(r.chatID, s))
	}
}

func (r *reply) fail(err error, s string) {
	r.log.WithError(err).Warn("command failed")
	r.text(s)
}

func (r *reply) send(c tgbotapi.Chattable) error {
	if err := r.bot.limiter.Wait(r.ctx); err != nil {
		r.log.WithError(err).Warn("send cancelled")
		return err
	}
	if _, err := r.bot.api.Send(c); err != nil {
		r.log.WithError(err).Error("send failed")
		return err
	}
	return nil
}
