package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/patrickmn/go-cache"

	"dealhunt/internal/domain"
	"dealhunt/internal/domain/entity"
	"dealhunt/pkg/contextx"
	"dealhunt/pkg/errcodes"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const (
	alertDedupTTL        = time.Hour
	descriptionMaxLength = 80
)

// TelegramBot delivers human-facing alerts for chosen opportunities. Alerts
// are fire-and-forget from the caller's perspective; a short dedup window
// keeps repeated selections of the same entry from re-alerting.
type TelegramBot struct {
	bot     *telego.Bot
	chatID  int64
	alerted *cache.Cache
	onSent  func()
}

func NewTelegramBot(token string, chatID int64) (*TelegramBot, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	return &TelegramBot{
		bot:     bot,
		chatID:  chatID,
		alerted: cache.New(alertDedupTTL, alertDedupTTL),
		onSent:  func() {},
	}, nil
}

// WithSentHook registers a callback fired after every delivered alert, for
// metrics.
func (b *TelegramBot) WithSentHook(hook func()) *TelegramBot {
	b.onSent = hook
	return b
}

// Alert sends a notification about the given opportunity.
func (b *TelegramBot) Alert(ctx context.Context, o entity.Opportunity) error {
	if _, seen := b.alerted.Get(o.Deal.URL); seen {
		logger(ctx).Info("alert suppressed, recently sent", "url", o.Deal.URL)
		return nil
	}

	text := fmt.Sprintf(
		"🔥 <b>Deal Alert!</b>\n\n"+
			"📦 %s\n"+
			"💰 <b>Price:</b> $%s\n"+
			"📊 <b>Estimate:</b> $%s\n"+
			"📉 <b>Discount:</b> $%s\n\n"+
			"🔗 <a href=\"%s\">View Deal</a>",
		truncate(o.Deal.ProductDescription, descriptionMaxLength),
		o.Deal.Price.StringFixed(2),
		o.Estimate.StringFixed(2),
		o.Discount.StringFixed(2),
		o.Deal.URL,
	)

	msg := tu.Message(
		tu.ID(b.chatID),
		text,
	).WithParseMode(telego.ModeHTML)

	if _, err := b.bot.SendMessage(ctx, msg); err != nil {
		return domain.WrapError(err, errcodes.AlertFailed, "send alert")
	}

	b.alerted.SetDefault(o.Deal.URL, struct{}{})
	b.onSent()

	return nil
}

// SendText sends a plain text message, used for the startup check.
func (b *TelegramBot) SendText(ctx context.Context, text string) error {
	msg := tu.Message(tu.ID(b.chatID), text)

	_, err := b.bot.SendMessage(ctx, msg)

	return err
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n]) + "..."
}
