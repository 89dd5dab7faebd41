package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"flavor-vault/internal/app"
	"flavor-vault/internal/config"
	"flavor-vault/internal/recipe"
	"flavor-vault/internal/shopping"
)

const (
	maxSearchResults = 10
	commandTimeout   = time.Minute
)

// Sender delivers messages to Telegram.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot answers chat commands against the application stores.
type Bot struct {
	api    *tgbotapi.BotAPI
	sender Sender
	app    *app.App
	cfg    *config.Config
	now    func() time.Time
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, a *app.App) (*Bot, error) {
	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	if cfg.TelegramWebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
		}
		resp, err := bot.Request(wh)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
		}
		log.Printf("Webhook set response: %s", resp.Description)
	}

	b := newBot(cfg, a, bot)
	b.api = bot
	return b, nil
}

func newBot(cfg *config.Config, a *app.App, sender Sender) *Bot {
	return &Bot{sender: sender, app: a, cfg: cfg, now: time.Now}
}

// RegisterHandlers registers the webhook handler on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// Poll consumes updates with long polling until ctx is done. It is used
// when no webhook URL is configured.
func (b *Bot) Poll(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			b.handleUpdate(update)
		}
	}
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}
	b.handleUpdate(*update)
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	if !b.isAllowed(update.Message.From.ID) {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) isAllowed(userID int64) bool {
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if userID == id {
			return true
		}
	}
	return false
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	cmd, err := ParseCommand(msg.Text, b.now())
	if err != nil {
		b.reply(msg.Chat.ID, parseErrorText(err))
		return
	}

	if imp, ok := cmd.(ImportCommand); ok {
		b.handleImport(ctx, msg.Chat.ID, imp)
		return
	}

	b.reply(msg.Chat.ID, b.Execute(ctx, cmd))
}

// handleImport shows a progress message and edits it with the result.
func (b *Bot) handleImport(ctx context.Context, chatID int64, cmd ImportCommand) {
	replyMsg := tgbotapi.NewMessage(chatID, "✂️ *Clipping recipe...*")
	replyMsg.ParseMode = tgbotapi.ModeMarkdown
	sentMsg, err := b.sender.Send(replyMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	edit := tgbotapi.NewEditMessageText(chatID, sentMsg.MessageID, b.Execute(ctx, cmd))
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.sender.Send(edit); err != nil {
		log.Printf("Failed to edit reply: %v", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.sender.Send(msg); err != nil {
		log.Printf("Failed to send reply: %v", err)
	}
}

func parseErrorText(err error) string {
	if errors.Is(err, ErrUsage) {
		return fmt.Sprintf("ℹ️ %s", escape(err.Error()))
	}
	return fmt.Sprintf("❓ %s\nSend /help for the command list.", escape(err.Error()))
}

// Execute runs cmd and returns the Markdown reply.
func (b *Bot) Execute(ctx context.Context, cmd Command) string {
	switch c := cmd.(type) {
	case HelpCommand:
		return helpText

	case SearchCommand:
		results := b.app.MealDB.SearchByName(ctx, c.Query)
		results = recipe.Filter{Sort: recipe.SortByName}.Apply(results)
		if len(results) > maxSearchResults {
			results = results[:maxSearchResults]
		}
		return app.RenderRecipeList(fmt.Sprintf("Results for %q", c.Query), results)

	case RecipeCommand:
		r, err := b.app.FindRecipe(ctx, c.RecipeID)
		if err != nil {
			return errorText("Recipe lookup failed", err)
		}
		return app.RenderRecipe(r)

	case FavoritesCommand:
		return app.RenderRecipeList("Favorites", b.app.Favorites.List(ctx))

	case FavoriteCommand:
		r, err := b.app.FavoriteByID(ctx, c.RecipeID)
		if err != nil {
			return errorText("Could not add favorite", err)
		}
		return fmt.Sprintf("⭐ *%s* is a favorite.", escape(r.Name))

	case UnfavoriteCommand:
		if err := b.app.Favorites.Remove(ctx, c.RecipeID); err != nil {
			return errorText("Could not remove favorite", err)
		}
		return "Removed from favorites."

	case PlanCommand:
		entry, err := b.app.PlanRecipe(ctx, c.Day, c.Slot, c.RecipeID, c.Notes)
		if err != nil {
			return errorText("Could not plan meal", err)
		}
		return fmt.Sprintf("📅 *%s* planned for %s %s.", escape(entry.RecipeName), entry.Day, entry.Slot)

	case UnplanCommand:
		if err := b.app.Plan.Unassign(ctx, c.Day, c.Slot); err != nil {
			return errorText("Could not clear slot", err)
		}
		return fmt.Sprintf("Cleared %s %s.", c.Day, c.Slot)

	case WeekCommand:
		return app.RenderWeek(b.app.Plan.Week(ctx, b.now()))

	case ShoppingCommand:
		return app.RenderShoppingList(b.app.Shopping.Grouped(ctx), nil)

	case GenerateCommand:
		result, err := b.app.GenerateShoppingList(ctx)
		if err != nil {
			return errorText("Could not build the shopping list", err)
		}
		return app.RenderShoppingList(shopping.GroupByCategory(result.Items), result.Unresolved)

	case AddItemCommand:
		item, err := b.app.Shopping.Add(ctx, shopping.Ingredient{Name: c.Name, Amount: c.Amount})
		if err != nil {
			return errorText("Could not add item", err)
		}
		return fmt.Sprintf("🛒 Added %s (`%s`).", escape(item.Name), item.ID)

	case CheckCommand:
		item, err := b.app.Shopping.ToggleChecked(ctx, c.ItemID)
		if err != nil {
			return errorText("Could not update item", err)
		}
		if item.Checked {
			return fmt.Sprintf("☑ %s", escape(item.Name))
		}
		return fmt.Sprintf("☐ %s", escape(item.Name))

	case ClearListCommand:
		if err := b.app.Shopping.ClearAll(ctx); err != nil {
			return errorText("Could not clear the list", err)
		}
		return "Shopping list cleared."

	case RateCommand:
		if _, err := b.app.Ratings.Rate(ctx, c.RecipeID, c.Rating, c.Review); err != nil {
			return errorText("Could not save rating", err)
		}
		return fmt.Sprintf("Rated %s %s", c.RecipeID, strings.Repeat("★", c.Rating))

	case ShareCommand:
		r, err := b.app.FindRecipe(ctx, c.RecipeID)
		if err != nil {
			return errorText("Could not share recipe", err)
		}
		text, err := b.app.Sharer.Text(r)
		if err != nil {
			return errorText("Could not share recipe", err)
		}
		return escape(text)

	case ImportCommand:
		r, err := b.app.Clipper.ClipURL(ctx, c.URL)
		if err != nil {
			log.Printf("Error clipping recipe: %v", err)
			return errorText("Error clipping recipe", err)
		}
		return fmt.Sprintf("✅ *Recipe Saved!*\n\n*Title:* %s\n*ID:* `%s`", escape(r.Name), r.ID)

	case MetricsCommand:
		if b.app.Metrics == nil {
			return "Metrics need a database backend."
		}
		usage, err := b.app.Metrics.GetDailyUsage(ctx, 7)
		if err != nil {
			return errorText("Error fetching metrics", err)
		}
		return app.RenderUsage(usage, b.app.Health())
	}

	return helpText
}

func errorText(what string, err error) string {
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *%s:*\n```\n%v\n```", what, safeErr)
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escape protects user text inside legacy Markdown messages.
func escape(s string) string {
	return markdownEscaper.Replace(s)
}
