package bot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/sheetpulse/internal/pipeline"
	"github.com/KaramelBytes/sheetpulse/internal/source"
)

var sheet = source.Static{
	{"이름", "유입", "티엠 결과"},
	{"김철수", "1", ""},
	{"이영희", "1", "장기"},
	{"박민수", "J", "장기"},
	{"한가인", "2", "부재중/재티엠"},
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	rejectMD bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok && f.rejectMD && m.ParseMode != "" {
		return tgbotapi.Message{}, errors.New("Bad Request: can't parse entities")
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type failingSource struct{}

func (failingSource) Fetch(context.Context) ([][]string, error) {
	return nil, &source.Error{Source: "google sheets", Err: errors.New("403 forbidden")}
}

func command(text string) tgbotapi.Update {
	n := strings.IndexByte(text, ' ')
	if n < 0 {
		n = len(text)
	}
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			MessageID: 1,
			Chat:      &tgbotapi.Chat{ID: 42},
			Text:      text,
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}},
		},
	}
}

func newBot(t *testing.T, src source.Source, cfg pipeline.Config) (*Bot, *fakeSender) {
	t.Helper()
	clock := func() time.Time { return time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC) }
	api := &fakeSender{}
	return New(api, pipeline.New(src, cfg, pipeline.WithClock(clock)), WithSendRate(0)), api
}

func TestStartAndUnknownCommand(t *testing.T) {
	b, api := newBot(t, sheet, pipeline.DefaultConfig())
	b.HandleUpdate(context.Background(), command("/start"))
	b.HandleUpdate(context.Background(), command("/whatever"))
	msgs := api.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Text, "유입 결과 분석 봇에 오신 것을 환영합니다")
	assert.Equal(t, tgbotapi.ModeMarkdown, msgs[0].ParseMode)
	assert.Equal(t, int64(42), msgs[0].ChatID)
	assert.Contains(t, msgs[1].Text, "명령어 도움말")
}

func TestNonCommandIgnored(t *testing.T) {
	b, api := newBot(t, sheet, pipeline.DefaultConfig())
	b.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "hello"}})
	b.HandleUpdate(context.Background(), tgbotapi.Update{})
	assert.Equal(t, 0, api.count())
}

func TestDataCommand(t *testing.T) {
	b, api := newBot(t, sheet, pipeline.DefaultConfig())
	b.HandleUpdate(context.Background(), command("/data"))
	msgs := api.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "📊 데이터를 가져오는 중...", msgs[0].Text)
	assert.Contains(t, msgs[1].Text, "총 인원: 3명")
	assert.Contains(t, msgs[1].Text, "• 1구역: 2명 (66.7%)")
}

func TestDataCommandSourceFailure(t *testing.T) {
	b, api := newBot(t, failingSource{}, pipeline.DefaultConfig())
	b.HandleUpdate(context.Background(), command("/data"))
	msgs := api.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "❌ 데이터를 가져오는 중 오류가 발생했습니다:\n데이터 가져오기 실패: google sheets: 403 forbidden", msgs[1].Text)
	assert.Empty(t, msgs[1].ParseMode)
}

func TestStatsCommandMissingColumns(t *testing.T) {
	cfg := pipeline.DefaultConfig()
	cfg.SelectedColumns = []string{"이름", "티엠 결과"}
	b, api := newBot(t, sheet, cfg)
	b.HandleUpdate(context.Background(), command("/stats"))
	msgs := api.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "❌ 필요한 컬럼을 찾을 수 없습니다.", msgs[1].Text)
}

func TestStatsCommand(t *testing.T) {
	b, api := newBot(t, sheet, pipeline.DefaultConfig())
	b.HandleUpdate(context.Background(), command("/stats"))
	msgs := api.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Text, "【1구역】")
	assert.Contains(t, msgs[1].Text, "【2구역】")
}

func TestCSVCommandSendsDocument(t *testing.T) {
	b, api := newBot(t, sheet, pipeline.DefaultConfig())
	b.HandleUpdate(context.Background(), command("/csv"))
	require.Equal(t, 2, api.count())
	assert.Equal(t, "📄 CSV 파일을 생성하는 중...", api.messages()[0].Text)

	doc, ok := api.sent[1].(tgbotapi.DocumentConfig)
	require.True(t, ok, "second send is %T", api.sent[1])
	assert.Equal(t, int64(42), doc.ChatID)
	assert.Equal(t, "📊 유입 결과 분석 데이터\n📅 생성일: 2026-10-18 09:30", doc.Caption)
	file, ok := doc.File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, "유입결과_분석_20261018.csv", file.Name)
	assert.Contains(t, string(file.Bytes), "1,신규,김철수")
}

func TestTMCommand(t *testing.T) {
	b, api := newBot(t, sheet, pipeline.DefaultConfig())
	b.HandleUpdate(context.Background(), command("/TM 1"))
	msgs := api.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "🔍 '1구역' 유입 데이터를 조회하는 중...", msgs[0].Text)
	assert.Contains(t, msgs[1].Text, "📊 **【1구역】 유입 데이터**")
	assert.Contains(t, msgs[1].Text, "총 인원: 2명")
}

func TestTMCommandWithoutArgument(t *testing.T) {
	b, api := newBot(t, sheet, pipeline.DefaultConfig())
	b.HandleUpdate(context.Background(), command("/tm"))
	msgs := api.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "유입명을 입력해주세요")
}

func TestTMCommandUnknownCategory(t *testing.T) {
	b, api := newBot(t, sheet, pipeline.DefaultConfig())
	b.HandleUpdate(context.Background(), command("/tm 9"))
	msgs := api.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Text, "'9구역' 유입을 찾을 수 없습니다")
	assert.Contains(t, msgs[1].Text, "• 1\n• 2")
}

func TestMarkdownRejectedFallsBackToPlainText(t *testing.T) {
	b, api := newBot(t, sheet, pipeline.DefaultConfig())
	api.rejectMD = true
	b.HandleUpdate(context.Background(), command("/help"))
	msgs := api.messages()
	require.Len(t, msgs, 1)
	assert.Empty(t, msgs[0].ParseMode)
	assert.Contains(t, msgs[0].Text, "명령어 도움말")
}

func TestRouterHealthAndWebhook(t *testing.T) {
	b, api := newBot(t, sheet, pipeline.DefaultConfig())
	srv := httptest.NewServer(b.Router(context.Background(), "/hook/secret"))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/hook/secret", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := `{"update_id":7,"message":{"message_id":1,"chat":{"id":42,"type":"private"},"text":"/start","entities":[{"type":"bot_command","offset":0,"length":6}]}}`
	resp, err = http.Post(srv.URL+"/hook/secret", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Eventually(t, func() bool { return api.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

type fakePoller struct {
	ch      chan tgbotapi.Update
	stopped bool
}

func (p *fakePoller) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return p.ch
}

func (p *fakePoller) StopReceivingUpdates() { p.stopped = true }

func TestPollHandlesUpdatesUntilClosed(t *testing.T) {
	b, api := newBot(t, sheet, pipeline.DefaultConfig())
	p := &fakePoller{ch: make(chan tgbotapi.Update, 2)}
	p.ch <- command("/start")
	p.ch <- command("/help")
	close(p.ch)
	require.NoError(t, b.Poll(context.Background(), p))
	assert.Equal(t, 2, api.count())
	assert.True(t, p.stopped)
}

func TestWebhookPath(t *testing.T) {
	path, err := WebhookPath("https://bot.example.com/hook/abc")
	require.NoError(t, err)
	assert.Equal(t, "/hook/abc", path)

	path, err = WebhookPath("https://bot.example.com")
	require.NoError(t, err)
	assert.Equal(t, "/", path)

	_, err = WebhookPath("http://bot.example.com/hook")
	assert.Error(t, err)
}
