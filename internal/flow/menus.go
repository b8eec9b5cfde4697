package flow

import (
	"time"

	"github.com/fieldops/taskbot/internal/models"
)

// QuestionKind identifies which menu layout a conversation step needs.
type QuestionKind string

const (
	// QuestionDate asks for the work date from a rolling 7-day list.
	QuestionDate QuestionKind = "date"
	// QuestionTaskType asks for one of the fixed work types.
	QuestionTaskType QuestionKind = "task_type"
	// QuestionLocation asks for a work location, with a free-text escape.
	QuestionLocation QuestionKind = "location"
	// QuestionPerformers asks for performer picks, with a terminator button.
	QuestionPerformers QuestionKind = "performers"
)

// Menu layout constants.
const (
	// DateMenuDays is the number of days offered by the date menu (today going back).
	DateMenuDays = 7
	// DateMenuPerRow is the number of date buttons per keyboard row.
	DateMenuPerRow = 3
)

// Fixed menu content for this flow.
var (
	taskTypes = []string{
		"Unit request",
		"Emergency repair",
		"Planned maintenance",
		"Management directive",
	}

	locations = []string{"MK", "M9", "M11", "K16", "BKM", "Alabino"}

	performers = []string{
		"A. Kireytsev",
		"A. Vorobyov",
		"M. Matveev",
		"V. Shesterikov",
		"A. Malakhov",
		"M. Malyarov",
	}
)

// Menus produces the button layout for each question kind. Layouts are
// deterministic and free of side effects; the engine treats the returned
// keyboard as opaque content.
type Menus struct {
	// now is injectable so the rolling date list can be pinned in tests.
	now func() time.Time
}

// NewMenus creates a menu provider using the wall clock.
func NewMenus() *Menus {
	return &Menus{now: time.Now}
}

// LayoutFor returns the ordered button layout for a question kind.
// Unknown kinds yield an empty keyboard.
func (m *Menus) LayoutFor(kind QuestionKind) models.Keyboard {
	switch kind {
	case QuestionDate:
		return m.dateKeyboard()
	case QuestionTaskType:
		return typeKeyboard()
	case QuestionLocation:
		return locationKeyboard()
	case QuestionPerformers:
		return performerKeyboard()
	default:
		return nil
	}
}

// dateKeyboard lists today and the previous six days, grouped three per row.
// Button labels double as callback tokens so the chosen token parses straight
// into the record timestamp.
func (m *Menus) dateKeyboard() models.Keyboard {
	today := m.now()
	var keyboard models.Keyboard
	var row []models.Button
	for i := 0; i < DateMenuDays; i++ {
		token := today.AddDate(0, 0, -i).Format(models.DateTokenLayout)
		row = append(row, models.Button{Label: token, Token: token})
		if len(row) == DateMenuPerRow {
			keyboard = append(keyboard, row)
			row = nil
		}
	}
	if len(row) > 0 {
		keyboard = append(keyboard, row)
	}
	return keyboard
}

// typeKeyboard lays the four fixed work types out in a 2x2 grid.
func typeKeyboard() models.Keyboard {
	return models.Keyboard{
		{
			{Label: taskTypes[0], Token: taskTypes[0]},
			{Label: taskTypes[1], Token: taskTypes[1]},
		},
		{
			{Label: taskTypes[2], Token: taskTypes[2]},
			{Label: taskTypes[3], Token: taskTypes[3]},
		},
	}
}

// locationKeyboard lists the six fixed locations three per row, plus the
// free-text escape button carrying the reserved "other" token.
func locationKeyboard() models.Keyboard {
	return models.Keyboard{
		{
			{Label: locations[0], Token: locations[0]},
			{Label: locations[1], Token: locations[1]},
			{Label: locations[2], Token: locations[2]},
		},
		{
			{Label: locations[3], Token: locations[3]},
			{Label: locations[4], Token: locations[4]},
			{Label: locations[5], Token: locations[5]},
		},
		{
			{Label: "Other location", Token: models.TokenOtherLocation},
		},
	}
}

// performerKeyboard lists the six fixed performers two per row, plus the
// terminator button carrying the reserved "done" token.
func performerKeyboard() models.Keyboard {
	return models.Keyboard{
		{
			{Label: performers[0], Token: performers[0]},
			{Label: performers[1], Token: performers[1]},
		},
		{
			{Label: performers[2], Token: performers[2]},
			{Label: performers[3], Token: performers[3]},
		},
		{
			{Label: performers[4], Token: performers[4]},
			{Label: performers[5], Token: performers[5]},
		},
		{
			{Label: "Finish selection", Token: models.TokenDone},
		},
	}
}
