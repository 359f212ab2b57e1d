package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/comitanigiacomo/kanso-progress/internal/config"
	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/services"
)

// localUser owns everything loaded from a plan file.
const localUser = "local"

var specValidate = validator.New()

// Plan is the YAML document the CLI evaluates:
//
//	holidays:
//	  - date: "2024-12-25"
//	habits:
//	  - id: run
//	    title: Morning run
//	    start_date: "2024-03-01"
//	    recurrence: {type: simple, frequency: daily}
//	    completions:
//	      - date: "2024-03-02"
//	tasks:
//	  - id: taxes
//	    title: File taxes
//	    priority: Urgente
//	    due_date: "2024-04-30"
type Plan struct {
	Holidays []config.Holiday `yaml:"holidays"`
	Habits   []PlanHabit      `yaml:"habits"`
	Tasks    []PlanTask       `yaml:"tasks"`
}

type PlanHabit struct {
	ID          string                 `yaml:"id"`
	Title       string                 `yaml:"title"`
	Type        string                 `yaml:"type"`
	Unit        string                 `yaml:"unit"`
	TargetValue int                    `yaml:"target_value"`
	StartDate   string                 `yaml:"start_date"`
	EndDate     string                 `yaml:"end_date"`
	Archived    bool                   `yaml:"archived"`
	Recurrence  *domain.RecurrenceSpec `yaml:"recurrence"`
	Completions []PlanCompletion       `yaml:"completions"`
}

// PlanCompletion defaults to a completed day when Completed is omitted.
type PlanCompletion struct {
	Date      string   `yaml:"date"`
	Completed *bool    `yaml:"completed"`
	Value     *float64 `yaml:"value"`
	Notes     string   `yaml:"notes"`
}

type PlanTask struct {
	ID          string                 `yaml:"id"`
	Title       string                 `yaml:"title"`
	Description string                 `yaml:"description"`
	Priority    string                 `yaml:"priority"`
	StartDate   string                 `yaml:"start_date"`
	DueDate     string                 `yaml:"due_date"`
	Completed   bool                   `yaml:"completed"`
	Recurrence  *domain.RecurrenceSpec `yaml:"recurrence"`
}

func LoadPlan(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	defer f.Close()
	return ParsePlan(f)
}

func ParsePlan(r io.Reader) (*Plan, error) {
	var plan Plan
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&plan); err != nil && err != io.EOF {
		return nil, fmt.Errorf("plan: decode: %w", err)
	}
	return &plan, nil
}

// HolidaySet converts the plan's calendar.
func (p *Plan) HolidaySet() (domain.HolidaySet, error) {
	return config.HolidayCalendar{Holidays: p.Holidays}.Set()
}

func recurrenceOf(field string, spec *domain.RecurrenceSpec) (domain.Recurrence, error) {
	if spec == nil {
		return nil, nil
	}
	if err := specValidate.Struct(spec); err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	rec, err := spec.ToRecurrence()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return rec, nil
}

// seed loads the plan into the workspace through the same services the API
// uses.
func (p *Plan) seed(ctx context.Context, ws *workspace) error {
	for i, ph := range p.Habits {
		field := fmt.Sprintf("habits[%d]", i)

		rec, err := recurrenceOf(field+".recurrence", ph.Recurrence)
		if err != nil {
			return err
		}
		start, err := domain.ParseOptionalDate(field+".start_date", ph.StartDate)
		if err != nil {
			return err
		}
		end, err := domain.ParseOptionalDate(field+".end_date", ph.EndDate)
		if err != nil {
			return err
		}

		habit, err := ws.habits.Create(ctx, services.CreateHabitInput{
			ID:          ph.ID,
			UserID:      localUser,
			Title:       ph.Title,
			Type:        ph.Type,
			Unit:        ph.Unit,
			TargetValue: ph.TargetValue,
			Recurrence:  rec,
			StartDate:   start,
			EndDate:     end,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}

		for j, pc := range ph.Completions {
			date, err := domain.ParseDateField(fmt.Sprintf("%s.completions[%d].date", field, j), pc.Date)
			if err != nil {
				return err
			}
			done := true
			if pc.Completed != nil {
				done = *pc.Completed
			}
			input := services.ToggleInput{
				HabitID:   habit.ID,
				UserID:    localUser,
				Date:      date,
				Completed: &done,
				Value:     pc.Value,
			}
			if pc.Notes != "" {
				input.Notes = &pc.Notes
			}
			if _, err := ws.completions.Toggle(ctx, input); err != nil {
				return fmt.Errorf("%s.completions[%d]: %w", field, j, err)
			}
		}

		if ph.Archived {
			if _, err := ws.habits.SetArchived(ctx, habit.ID, localUser, true); err != nil {
				return fmt.Errorf("%s: %w", field, err)
			}
		}
	}

	for i, pt := range p.Tasks {
		field := fmt.Sprintf("tasks[%d]", i)

		priority, err := domain.ParsePriority(pt.Priority)
		if err != nil {
			return fmt.Errorf("%s.priority: %w", field, err)
		}
		rec, err := recurrenceOf(field+".recurrence", pt.Recurrence)
		if err != nil {
			return err
		}
		start, err := domain.ParseOptionalDate(field+".start_date", pt.StartDate)
		if err != nil {
			return err
		}
		due, err := domain.ParseOptionalDate(field+".due_date", pt.DueDate)
		if err != nil {
			return err
		}

		task, err := ws.tasks.Create(ctx, services.CreateTaskInput{
			ID:          pt.ID,
			UserID:      localUser,
			Title:       pt.Title,
			Description: pt.Description,
			Priority:    priority,
			StartDate:   start,
			DueDate:     due,
			Recurrence:  rec,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}

		if pt.Completed {
			if _, _, err := ws.tasks.SetCompleted(ctx, task.ID, localUser, true); err != nil {
				return fmt.Errorf("%s: %w", field, err)
			}
		}
	}
	return nil
}
