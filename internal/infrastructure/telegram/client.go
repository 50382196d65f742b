package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/vitos/spot_arbitrage_bot/internal/domain"
	"github.com/vitos/spot_arbitrage_bot/internal/usecase"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	actionStart  = "start"
	actionStop   = "stop"
	actionStatus = "status"
	actionBack   = "back"

	panelTitle   = "🤖 *Arbitrage Bot Control Panel*"
	notReadyText = "⏳ Arbitrage bot is still starting"
)

// Controller is the start/stop surface the bot drives.
type Controller interface {
	Start() (string, bool)
	Stop() (string, bool)
	Status() usecase.ServiceStatus
}

// api is the subset of *bot.Bot the client calls.
type api interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

type Config struct {
	BotToken string
	ChatID   string
	// MinSendInterval paces outgoing alerts; Telegram throttles bursts to a
	// single chat.
	MinSendInterval time.Duration
}

func (c Config) Check() error {
	if len(c.BotToken) == 0 {
		return fmt.Errorf("bot token cannot be empty")
	}
	if len(c.ChatID) == 0 {
		return fmt.Errorf("chat id cannot be empty")
	}
	return nil
}

// Client sends alerts to one chat and serves the control panel.
type Client struct {
	bot        *bot.Bot
	api        api
	chatID     any // int64 for users and groups, "@name" for channels
	controller Controller
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// New creates the bot. Control buttons answer with a not-ready notice until
// SetController is called.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}

	c := newClient(nil, cfg, nil, logger)
	b, err := bot.New(cfg.BotToken, bot.WithDefaultHandler(c.handleDefault))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	c.bot = b
	c.api = b

	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, c.handleStartCommand)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.handleCallback)
	return c, nil
}

func newClient(a api, cfg Config, controller Controller, logger *zap.Logger) *Client {
	interval := cfg.MinSendInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &Client{
		api:        a,
		chatID:     parseChatID(cfg.ChatID),
		controller: controller,
		limiter:    rate.NewLimiter(rate.Every(interval), 3),
		logger:     logger.With(zap.String("component", "telegram")),
	}
}

// SetController attaches the scheduler the control panel drives. Call it
// before Run.
func (c *Client) SetController(controller Controller) {
	c.controller = controller
}

func parseChatID(s string) any {
	s = strings.TrimSpace(s)
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id
	}
	return s
}

// Run polls Telegram for updates until ctx is cancelled.
func (c *Client) Run(ctx context.Context) {
	c.logger.Info("Telegram polling started")
	c.bot.Start(ctx)
	c.logger.Info("Telegram polling stopped")
}

// Notify sends the alert text to the configured chat.
func (c *Client) Notify(ctx context.Context, alert domain.Alert) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram: wait for send slot: %w", err)
	}
	_, err := c.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      c.chatID,
		Text:        alert.Text,
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: backMenu(),
	})
	if err != nil {
		return fmt.Errorf("telegram: send %s alert: %w", alert.Kind, err)
	}
	return nil
}

func (c *Client) authorized(chatID int64) bool {
	switch id := c.chatID.(type) {
	case int64:
		return id == chatID
	default:
		// Channels are addressed by name; commands come from the channel
		// admins and cannot be matched by id.
		return true
	}
}

func (c *Client) handleDefault(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message != nil {
		c.logger.Debug("Ignoring message", zap.Int64("chat_id", update.Message.Chat.ID))
	}
}

func (c *Client) handleStartCommand(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	if !c.authorized(update.Message.Chat.ID) {
		c.logger.Warn("Control panel requested from unauthorized chat", zap.Int64("chat_id", update.Message.Chat.ID))
		return
	}
	_, err := c.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        panelTitle,
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: mainMenu(),
	})
	if err != nil {
		c.logger.Error("Failed to send control panel", zap.Error(err))
	}
}

func (c *Client) handleCallback(ctx context.Context, _ *bot.Bot, update *models.Update) {
	q := update.CallbackQuery
	if q == nil {
		return
	}
	if _, err := c.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: q.ID}); err != nil {
		c.logger.Warn("Failed to answer callback", zap.Error(err))
	}

	msg := q.Message.Message
	if msg == nil {
		c.logger.Debug("Callback on inaccessible message", zap.String("data", q.Data))
		return
	}
	if !c.authorized(msg.Chat.ID) {
		c.logger.Warn("Control action from unauthorized chat",
			zap.Int64("chat_id", msg.Chat.ID),
			zap.String("data", q.Data))
		return
	}

	text, markup, ok := c.applyAction(q.Data)
	if !ok {
		c.logger.Debug("Unknown callback data", zap.String("data", q.Data))
		return
	}
	_, err := c.api.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		Text:        text,
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: markup,
	})
	if err != nil {
		c.logger.Error("Failed to update control panel", zap.String("data", q.Data), zap.Error(err))
	}
}

// applyAction runs a button action and returns the text and keyboard to show.
func (c *Client) applyAction(data string) (string, models.InlineKeyboardMarkup, bool) {
	switch data {
	case actionStart, actionStop, actionStatus:
		if c.controller == nil {
			return notReadyText, mainMenu(), true
		}
	}

	switch data {
	case actionStart:
		ack, _ := c.controller.Start()
		return ack, mainMenu(), true
	case actionStop:
		ack, _ := c.controller.Stop()
		return ack, mainMenu(), true
	case actionStatus:
		return formatStatus(c.controller.Status()), mainMenu(), true
	case actionBack:
		return panelTitle, mainMenu(), true
	}
	return "", models.InlineKeyboardMarkup{}, false
}

func mainMenu() models.InlineKeyboardMarkup {
	return models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "▶️ Start Bot", CallbackData: actionStart}},
			{{Text: "⏹ Stop Bot", CallbackData: actionStop}},
			{{Text: "📋 Status", CallbackData: actionStatus}},
		},
	}
}

func backMenu() models.InlineKeyboardMarkup {
	return models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "🔙 Back", CallbackData: actionBack}},
		},
	}
}

func formatStatus(st usecase.ServiceStatus) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 *Status*: `%s`\n", st.State)
	fmt.Fprintf(&sb, "🔁 Cycles: `%d`\n", st.Cycles)
	if !st.StartedAt.IsZero() {
		fmt.Fprintf(&sb, "⏱ Uptime: `%s`\n", time.Since(st.StartedAt).Truncate(time.Second))
	}
	if r := st.LastCycle; r != nil {
		fmt.Fprintf(&sb, "🔍 Common pairs: `%d`\n", r.CommonSymbols)
		fmt.Fprintf(&sb, "📊 Opportunities: `%d` (alerted `%d`, suppressed `%d`)\n", r.Opportunities, r.AlertsDispatched, r.Suppressed)
		if len(r.FeedFailures) > 0 {
			fmt.Fprintf(&sb, "⚠️ Failing feeds: `%s`\n", strings.Join(r.FeedFailures, ", "))
		}
	}
	if st.LastError != "" {
		fmt.Fprintf(&sb, "❗ Last error: `%s`\n", codeSpan(st.LastError))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// codeSpan makes s safe inside a Markdown V1 code span, which cannot escape
// backticks.
func codeSpan(s string) string {
	return strings.ReplaceAll(s, "`", "'")
}
