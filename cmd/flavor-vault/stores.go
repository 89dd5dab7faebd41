package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"flavor-vault/internal/app"
	"flavor-vault/internal/planner"
	"flavor-vault/internal/shopping"
)

func favoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "List favorite recipes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				fmt.Print(app.RenderRecipeList("Favorites", a.Favorites.List(ctx)))
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add [recipe id]",
		Short: "Add a recipe to favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				r, err := a.FavoriteByID(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Added %s to favorites.\n", r.Name)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove [recipe id]",
		Short: "Remove a recipe from favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Favorites.Remove(ctx, args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every favorite",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Favorites.Clear(ctx)
			})
		},
	})
	return cmd
}

func planCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the weekly meal plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := time.Now()
			if from != "" {
				t, err := time.ParseInLocation(planner.DateKeyLayout, from, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --from date %q: %w", from, err)
				}
				ref = t
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				fmt.Print(app.RenderWeek(a.Plan.Week(ctx, ref)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day of the window (YYYY-MM-DD)")

	var notes string
	set := &cobra.Command{
		Use:   "set [day] [slot] [recipe id]",
		Short: "Assign a recipe to a day slot",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := planner.ParseMealSlot(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				entry, err := a.PlanRecipe(ctx, args[0], slot, args[2], notes)
				if err != nil {
					return err
				}
				fmt.Printf("Planned %s for %s %s.\n", entry.RecipeName, entry.Day, entry.Slot)
				return nil
			})
		},
	}
	set.Flags().StringVar(&notes, "notes", "", "notes for the meal")
	cmd.AddCommand(set)

	cmd.AddCommand(&cobra.Command{
		Use:   "unset [day] [slot]",
		Short: "Clear a day slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := planner.ParseMealSlot(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Plan.Unassign(ctx, args[0], slot)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every planned meal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Plan.ClearAll(ctx)
			})
		},
	})
	return cmd
}

func shoppingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shopping",
		Short: "Show the shopping list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				fmt.Print(app.RenderShoppingList(a.Shopping.Grouped(ctx), nil))
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Add the ingredients of every planned meal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				result, err := a.GenerateShoppingList(ctx)
				if err != nil {
					return err
				}
				fmt.Print(app.RenderShoppingList(shopping.GroupByCategory(result.Items), result.Unresolved))
				return nil
			})
		},
	})

	var amount, category string
	add := &cobra.Command{
		Use:   "add [item name]",
		Short: "Add an item by hand",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				item, err := a.Shopping.Add(ctx, shopping.Ingredient{
					Name:     strings.Join(args, " "),
					Amount:   amount,
					Category: category,
				})
				if err != nil {
					return err
				}
				fmt.Printf("Added %s (%s).\n", item.Name, item.ID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&amount, "amount", "", "quantity to buy")
	add.Flags().StringVar(&category, "category", "", "aisle or recipe category")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle [item id]",
		Short: "Check or uncheck an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				item, err := a.Shopping.ToggleChecked(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("%s checked=%t\n", item.Name, item.Checked)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove [item id]",
		Short: "Remove an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Shopping.Remove(ctx, args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the shopping list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Shopping.ClearAll(ctx)
			})
		},
	})
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [url]",
		Short: "Import a recipe from a web page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				r, err := a.Clipper.ClipURL(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Print(app.RenderRecipe(r))
				return nil
			})
		},
	}
}

func metricsCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show recipe source usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if a.Metrics == nil {
					return fmt.Errorf("metrics require a database storage backend")
				}
				usage, err := a.Metrics.GetDailyUsage(ctx, days)
				if err != nil {
					return err
				}
				fmt.Print(app.RenderUsage(usage, a.Health()))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "number of days to report")
	return cmd
}

func metricsCleanupCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "metrics-cleanup",
		Short: "Remove old metric records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if a.Metrics == nil {
					return fmt.Errorf("metrics require a database storage backend")
				}
				affected, err := a.Metrics.Cleanup(ctx, days)
				if err != nil {
					return fmt.Errorf("cleanup failed: %w", err)
				}
				fmt.Printf("Successfully removed %d old metric records.\n", affected)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Keep records for the last N days")
	return cmd
}
