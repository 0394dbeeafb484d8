package services

import (
	"errors"
	"slices"
	"testing"

	"github.com/adanyl0v/go-todo-lists/internal/models"
)

func TestNormalizeList(t *testing.T) {
	list := &models.List{
		ID:             "l1",
		Title:          "  Work  ",
		Owner:          "owner",
		Members:        []string{"b", "owner", "b", "", "c"},
		Type:           models.ListTypeDefault,
		Tasks:          []string{"t1", "t2", "t1"},
		CompletedTasks: []string{"t3", "t2", "t3"},
		Color:          "abc",
	}
	normalizeList(list)

	if list.Title != "Work" {
		t.Errorf("title = %q", list.Title)
	}
	if list.Color != "#abc" {
		t.Errorf("color = %q", list.Color)
	}
	if !slices.Equal(list.Members, []string{"owner", "b", "c"}) {
		t.Errorf("members = %v", list.Members)
	}
	if !slices.Equal(list.Tasks, []string{"t1", "t2"}) {
		t.Errorf("tasks = %v", list.Tasks)
	}
	if !slices.Equal(list.CompletedTasks, []string{"t3"}) {
		t.Errorf("completedTasks = %v", list.CompletedTasks)
	}
	if err := validateList(list); err != nil {
		t.Errorf("normalized list rejected: %v", err)
	}
}

func TestValidateList(t *testing.T) {
	valid := func() *models.List {
		return &models.List{
			ID:      "l1",
			Title:   "Work",
			Owner:   "owner",
			Members: []string{"owner"},
			Type:    models.ListTypeDefault,
		}
	}

	tests := []struct {
		name      string
		mutate    func(l *models.List)
		wantField string
	}{
		{name: "valid", mutate: func(*models.List) {}},
		{name: "six digit color", mutate: func(l *models.List) { l.Color = "#A0b1C2" }},
		{name: "empty title", mutate: func(l *models.List) { l.Title = "" }, wantField: "title"},
		{name: "bad color", mutate: func(l *models.List) { l.Color = "#abcd" }, wantField: "color"},
		{name: "virtual type", mutate: func(l *models.List) { l.Type = models.ListTypeToday }, wantField: "type"},
		{name: "no members", mutate: func(l *models.List) { l.Members = []string{} }, wantField: "members"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := valid()
			tt.mutate(list)
			err := validateList(list)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want validation error", err)
			}
			fields := Fields(err)
			if len(fields) == 0 || fields[0].Field != tt.wantField {
				t.Fatalf("fields = %+v, want %s", fields, tt.wantField)
			}
		})
	}
}

func TestNormalizeTask(t *testing.T) {
	done := testNow
	task := &models.Task{
		Title:          " x ",
		CompletionDate: &done,
	}
	normalizeTask(task)

	if task.Title != "x" || task.Priority != models.PriorityNormal {
		t.Errorf("title/priority = %q/%s", task.Title, task.Priority)
	}
	if task.Subtasks == nil {
		t.Error("subtasks left nil")
	}
	if task.CompletionDate != nil {
		t.Error("completion date kept on incomplete task")
	}
}

func TestValidateTaskSubtasks(t *testing.T) {
	task := &models.Task{
		ID:        "t1",
		Title:     "x",
		List:      "l1",
		CreatedBy: "u1",
		Priority:  models.PriorityNormal,
		Subtasks:  []models.Subtask{{Title: "ok"}, {Title: ""}},
	}
	err := validateTask(task)
	if fields := Fields(err); len(fields) != 1 || fields[0].Field != "subtasks.1.title" {
		t.Fatalf("fields = %+v", fields)
	}
}

func TestErrorMessage(t *testing.T) {
	err := validationError(msgValidationFailed, FieldError{Field: "title", Message: "too long"})
	if got := err.Error(); got != "validation error: Validation failed (title: too long)" {
		t.Fatalf("Error() = %q", got)
	}
	if Message(errors.New("plain")) != "" {
		t.Fatal("Message of a plain error should be empty")
	}
}
