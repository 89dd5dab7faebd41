package app

import (
	"fmt"
	"strings"

	"flavor-vault/internal/metrics"
	"flavor-vault/internal/planner"
	"flavor-vault/internal/recipe"
	"flavor-vault/internal/shopping"
)

// RenderWeek formats the weekly plan as Markdown.
func RenderWeek(week []planner.DayPlan) string {
	var sb strings.Builder
	sb.WriteString("*Weekly Meal Plan*\n")
	for _, day := range week {
		fmt.Fprintf(&sb, "\n*%s* (%s)\n", day.Label, day.Key)
		empty := true
		for _, slot := range planner.MealSlots {
			e, ok := day.Meals[slot]
			if !ok {
				continue
			}
			empty = false
			fmt.Fprintf(&sb, "• %s: %s", slotTitle(slot), e.RecipeName)
			if e.Notes != "" {
				fmt.Fprintf(&sb, " _(%s)_", e.Notes)
			}
			sb.WriteString("\n")
		}
		if empty {
			sb.WriteString("_nothing planned_\n")
		}
	}
	return sb.String()
}

// RenderShoppingList formats grouped items as a Markdown checklist.
// Unresolved recipe ids are listed as a warning at the end.
func RenderShoppingList(groups []shopping.Group, unresolved []string) string {
	var sb strings.Builder
	sb.WriteString("*Shopping List*\n")
	if len(groups) == 0 {
		sb.WriteString("\n_The list is empty._\n")
	}
	for _, g := range groups {
		fmt.Fprintf(&sb, "\n*%s*\n", g.Category)
		for _, item := range g.Items {
			box := "☐"
			if item.Checked {
				box = "☑"
			}
			fmt.Fprintf(&sb, "%s %s", box, item.Name)
			if item.Amount != "" {
				fmt.Fprintf(&sb, " (%s)", item.Amount)
			}
			sb.WriteString("\n")
		}
	}
	if len(unresolved) > 0 {
		fmt.Fprintf(&sb, "\n⚠️ Recipes not found: %s\n", strings.Join(unresolved, ", "))
	}
	return sb.String()
}

// RenderRecipe formats a recipe card as Markdown.
func RenderRecipe(r recipe.Recipe) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s*\n", r.Name)

	var meta []string
	if r.Category != "" {
		meta = append(meta, r.Category)
	}
	if r.Area != "" {
		meta = append(meta, r.Area)
	}
	meta = append(meta, fmt.Sprintf("%d min", r.CookingTime), "★ "+r.Rating)
	fmt.Fprintf(&sb, "_%s_\n", strings.Join(meta, " · "))
	fmt.Fprintf(&sb, "ID: `%s`\n", r.ID)

	if len(r.Ingredients) > 0 {
		sb.WriteString("\n*Ingredients*\n")
		for _, ing := range r.Ingredients {
			if ing.Measure != "" {
				fmt.Fprintf(&sb, "• %s %s\n", ing.Measure, ing.Name)
			} else {
				fmt.Fprintf(&sb, "• %s\n", ing.Name)
			}
		}
	}
	if r.Instructions != "" {
		fmt.Fprintf(&sb, "\n*Instructions*\n%s\n", r.Instructions)
	}
	return sb.String()
}

// RenderRecipeList formats one line per recipe.
func RenderRecipeList(title string, recipes []recipe.Recipe) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s*\n", title)
	if len(recipes) == 0 {
		sb.WriteString("_No recipes._\n")
	}
	for _, r := range recipes {
		fmt.Fprintf(&sb, "• %s (`%s`)\n", r.Name, r.ID)
	}
	return sb.String()
}

// RenderUsage formats the daily usage report.
func RenderUsage(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("*Usage*\n")
	if len(usage) == 0 {
		sb.WriteString("_No recorded calls._\n")
	}
	for _, u := range usage {
		fmt.Fprintf(&sb, "`%s` calls: %d, failures: %d, results: %d, avg: %dms\n",
			u.Date, u.Calls, u.Failures, u.Results, u.AvgLatencyMS)
	}
	fmt.Fprintf(&sb, "\n*System*\nUptime: %s\nMemory: %d MB\nGoroutines: %d\nData: %s\n",
		health.Uptime, health.AllocMB, health.Goroutines, health.DataDiskSize)
	return sb.String()
}

func slotTitle(s planner.MealSlot) string {
	name := string(s)
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
