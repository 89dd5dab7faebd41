package planner

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateKeyLayout is the layout of a plan day key.
const DateKeyLayout = "2006-01-02"

// WindowDays is the length of the rolling planning window.
const WindowDays = 7

// MealSlot is one meal of a day.
type MealSlot string

const (
	Breakfast MealSlot = "breakfast"
	Lunch     MealSlot = "lunch"
	Dinner    MealSlot = "dinner"
	Snack     MealSlot = "snack"
)

// MealSlots lists the slots in display order.
var MealSlots = []MealSlot{Breakfast, Lunch, Dinner, Snack}

// Valid reports whether s is one of the known slots.
func (s MealSlot) Valid() bool {
	for _, slot := range MealSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// ParseMealSlot maps user input to a MealSlot, ignoring case and
// surrounding space.
func ParseMealSlot(s string) (MealSlot, error) {
	slot := MealSlot(strings.ToLower(strings.TrimSpace(s)))
	if !slot.Valid() {
		return "", &InvalidSlotError{Slot: s}
	}
	return slot, nil
}

// ErrInvalidSlot matches every InvalidSlotError.
var ErrInvalidSlot = errors.New("invalid meal slot")

// InvalidSlotError reports an assignment to a missing day or an unknown slot.
type InvalidSlotError struct {
	Day  string
	Slot string
}

func (e *InvalidSlotError) Error() string {
	return fmt.Sprintf("invalid meal slot: day=%q slot=%q", e.Day, e.Slot)
}

// Is makes errors.Is(err, ErrInvalidSlot) true for any InvalidSlotError.
func (e *InvalidSlotError) Is(target error) bool {
	return target == ErrInvalidSlot
}

// RecipeRef is the part of a recipe a plan entry keeps.
type RecipeRef struct {
	ID    string
	Name  string
	Image string
}

// Entry is a recipe assigned to one (day, slot).
type Entry struct {
	ID          string    `json:"id"`
	RecipeID    string    `json:"recipeId"`
	RecipeName  string    `json:"recipeName"`
	RecipeImage string    `json:"recipeImage"`
	Day         string    `json:"day"`
	Slot        MealSlot  `json:"mealType"`
	Notes       string    `json:"notes"`
	DateAdded   time.Time `json:"dateAdded"`
}

// Day is one labelled day of the planning window.
type Day struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// DayPlan pairs a window day with its occupied slots.
type DayPlan struct {
	Day
	Meals map[MealSlot]Entry `json:"meals"`
}

// Window returns the WindowDays consecutive days starting at reference,
// labelled "Today", "Tomorrow" and then by weekday name.
func Window(reference time.Time) []Day {
	days := make([]Day, 0, WindowDays)
	for i := 0; i < WindowDays; i++ {
		date := reference.AddDate(0, 0, i)
		var label string
		switch i {
		case 0:
			label = "Today"
		case 1:
			label = "Tomorrow"
		default:
			label = date.Weekday().String()
		}
		days = append(days, Day{Key: date.Format(DateKeyLayout), Label: label})
	}
	return days
}

// IngredientRef is a plan ingredient tagged with the recipe it came from.
type IngredientRef struct {
	Name       string `json:"name"`
	Measure    string `json:"measure"`
	Category   string `json:"category"`
	RecipeID   string `json:"recipeId"`
	RecipeName string `json:"recipeName"`
}
