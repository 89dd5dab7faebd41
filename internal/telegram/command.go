package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"flavor-vault/internal/planner"
)

// Command is a parsed chat message.
type Command interface {
	command()
}

type (
	HelpCommand      struct{}
	FavoritesCommand struct{}
	WeekCommand      struct{}
	ShoppingCommand  struct{}
	GenerateCommand  struct{}
	ClearListCommand struct{}
	MetricsCommand   struct{}

	FavoriteCommand   struct{ RecipeID string }
	UnfavoriteCommand struct{ RecipeID string }
	RecipeCommand     struct{ RecipeID string }
	ShareCommand      struct{ RecipeID string }
	SearchCommand     struct{ Query string }
	ImportCommand     struct{ URL string }
	AddItemCommand    struct{ Name, Amount string }
	CheckCommand      struct{ ItemID string }

	PlanCommand struct {
		Day      string
		Slot     planner.MealSlot
		RecipeID string
		Notes    string
	}
	UnplanCommand struct {
		Day  string
		Slot planner.MealSlot
	}
	RateCommand struct {
		RecipeID string
		Rating   int
		Review   string
	}
)

func (HelpCommand) command()       {}
func (FavoritesCommand) command()  {}
func (WeekCommand) command()       {}
func (ShoppingCommand) command()   {}
func (GenerateCommand) command()   {}
func (ClearListCommand) command()  {}
func (MetricsCommand) command()    {}
func (FavoriteCommand) command()   {}
func (UnfavoriteCommand) command() {}
func (RecipeCommand) command()     {}
func (ShareCommand) command()      {}
func (SearchCommand) command()     {}
func (ImportCommand) command()     {}
func (AddItemCommand) command()    {}
func (CheckCommand) command()      {}
func (PlanCommand) command()       {}
func (UnplanCommand) command()     {}
func (RateCommand) command()       {}

// ErrUsage is returned for a known command with missing or bad arguments.
var ErrUsage = errors.New("usage")

// usageError carries the usage line of the command that failed to parse.
type usageError struct {
	usage string
}

func (e *usageError) Error() string { return "usage: " + e.usage }

func (e *usageError) Is(target error) bool { return target == ErrUsage }

const helpText = `*Flavor Vault*
/search <name> - search recipes
/recipe <id> - show a recipe
/favorites - list favorites
/fav <id> - add a favorite
/unfav <id> - remove a favorite
/plan <day> <slot> <id> [notes] - plan a meal
/unplan <day> <slot> - clear a slot
/week - show the weekly plan
/list - show the shopping list
/generate - add planned ingredients to the list
/add <item> [, amount] - add a list item
/check <item id> - tick an item
/clearlist - empty the list
/rate <id> <1-5> [review] - rate a recipe
/share <id> - get a share link
/metrics - usage report
Send a link to import a recipe.`

// ParseCommand turns message text into a Command. Day arguments are
// resolved relative to now.
func ParseCommand(text string, now time.Time) (Command, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		return ImportCommand{URL: strings.Fields(text)[0]}, nil
	}
	if !strings.HasPrefix(text, "/") {
		if text == "" {
			return HelpCommand{}, nil
		}
		return SearchCommand{Query: text}, nil
	}

	name, rest, _ := strings.Cut(text, " ")
	// Commands sent from group chats carry the bot name: /week@FlavorBot
	name, _, _ = strings.Cut(strings.ToLower(name), "@")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch name {
	case "/start", "/help":
		return HelpCommand{}, nil
	case "/favorites":
		return FavoritesCommand{}, nil
	case "/week":
		return WeekCommand{}, nil
	case "/list":
		return ShoppingCommand{}, nil
	case "/generate":
		return GenerateCommand{}, nil
	case "/clearlist":
		return ClearListCommand{}, nil
	case "/metrics":
		return MetricsCommand{}, nil
	case "/fav":
		if len(args) != 1 {
			return nil, &usageError{"/fav <recipe id>"}
		}
		return FavoriteCommand{RecipeID: args[0]}, nil
	case "/unfav":
		if len(args) != 1 {
			return nil, &usageError{"/unfav <recipe id>"}
		}
		return UnfavoriteCommand{RecipeID: args[0]}, nil
	case "/recipe":
		if len(args) != 1 {
			return nil, &usageError{"/recipe <recipe id>"}
		}
		return RecipeCommand{RecipeID: args[0]}, nil
	case "/share":
		if len(args) != 1 {
			return nil, &usageError{"/share <recipe id>"}
		}
		return ShareCommand{RecipeID: args[0]}, nil
	case "/search":
		if rest == "" {
			return nil, &usageError{"/search <name>"}
		}
		return SearchCommand{Query: rest}, nil
	case "/import":
		if len(args) != 1 {
			return nil, &usageError{"/import <url>"}
		}
		return ImportCommand{URL: args[0]}, nil
	case "/add":
		item, amount, _ := strings.Cut(rest, ",")
		if strings.TrimSpace(item) == "" {
			return nil, &usageError{"/add <item> [, amount]"}
		}
		return AddItemCommand{Name: strings.TrimSpace(item), Amount: strings.TrimSpace(amount)}, nil
	case "/check":
		if len(args) != 1 {
			return nil, &usageError{"/check <item id>"}
		}
		return CheckCommand{ItemID: args[0]}, nil
	case "/plan":
		const usage = "/plan <day> <breakfast|lunch|dinner|snack> <recipe id> [notes]"
		if len(args) < 3 {
			return nil, &usageError{usage}
		}
		day, err := parseDay(args[0], now)
		if err != nil {
			return nil, &usageError{usage}
		}
		slot, err := planner.ParseMealSlot(args[1])
		if err != nil {
			return nil, &usageError{usage}
		}
		return PlanCommand{Day: day, Slot: slot, RecipeID: args[2], Notes: strings.Join(args[3:], " ")}, nil
	case "/unplan":
		const usage = "/unplan <day> <breakfast|lunch|dinner|snack>"
		if len(args) != 2 {
			return nil, &usageError{usage}
		}
		day, err := parseDay(args[0], now)
		if err != nil {
			return nil, &usageError{usage}
		}
		slot, err := planner.ParseMealSlot(args[1])
		if err != nil {
			return nil, &usageError{usage}
		}
		return UnplanCommand{Day: day, Slot: slot}, nil
	case "/rate":
		const usage = "/rate <recipe id> <1-5> [review]"
		if len(args) < 2 {
			return nil, &usageError{usage}
		}
		rating, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, &usageError{usage}
		}
		return RateCommand{RecipeID: args[0], Rating: rating, Review: strings.Join(args[2:], " ")}, nil
	}
	return nil, fmt.Errorf("unknown command %s", name)
}

// parseDay accepts a date key, "today", "tomorrow" or a weekday name. A
// weekday means its next occurrence, today included.
func parseDay(s string, now time.Time) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "today":
		return now.Format(planner.DateKeyLayout), nil
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format(planner.DateKeyLayout), nil
	}
	if t, err := time.Parse(planner.DateKeyLayout, s); err == nil {
		return t.Format(planner.DateKeyLayout), nil
	}
	for i := 0; i < 7; i++ {
		d := now.AddDate(0, 0, i)
		if strings.ToLower(d.Weekday().String()) == s || strings.ToLower(d.Weekday().String()[:3]) == s {
			return d.Format(planner.DateKeyLayout), nil
		}
	}
	return "", fmt.Errorf("unknown day %q", s)
}
