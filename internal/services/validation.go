package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/adanyl0v/go-todo-lists/internal/models"
)

const listSchemaJSON = `{
  "type": "object",
  "required": ["id", "title", "owner", "members", "type"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "title": {"type": "string", "minLength": 1, "maxLength": 100},
    "owner": {"type": "string", "minLength": 1},
    "members": {
      "type": "array",
      "minItems": 1,
      "uniqueItems": true,
      "items": {"type": "string", "minLength": 1}
    },
    "type": {"enum": ["inbox", "default"]},
    "tasks": {"type": ["array", "null"], "uniqueItems": true, "items": {"type": "string"}},
    "completedTasks": {"type": ["array", "null"], "uniqueItems": true, "items": {"type": "string"}},
    "color": {"type": "string", "pattern": "^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$"}
  }
}`

const taskSchemaJSON = `{
  "type": "object",
  "required": ["id", "title", "list", "createdBy", "priority"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "title": {"type": "string", "minLength": 1, "maxLength": 500},
    "notes": {"type": "string", "maxLength": 5000},
    "list": {"type": "string", "minLength": 1},
    "createdBy": {"type": "string", "minLength": 1},
    "isCompleted": {"type": "boolean"},
    "priority": {"enum": ["low", "normal", "high"]},
    "subtasks": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["title"],
        "properties": {
          "title": {"type": "string", "minLength": 1, "maxLength": 500},
          "isCompleted": {"type": "boolean"}
        }
      }
    }
  }
}`

var (
	listSchema = jsonschema.MustCompileString("list.schema.json", listSchemaJSON)
	taskSchema = jsonschema.MustCompileString("task.schema.json", taskSchemaJSON)
)

func validateList(list *models.List) error {
	return validateDocument(listSchema, list)
}

func validateTask(task *models.Task) error {
	return validateDocument(taskSchema, task)
}

func validateDocument(schema *jsonschema.Schema, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	var obj any
	err = json.Unmarshal(data, &obj)
	if err != nil {
		return fmt.Errorf("failed to unmarshal document: %w", err)
	}

	err = schema.Validate(obj)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	var fields []FieldError
	collectFieldErrors(&fields, ve)
	return validationError(msgValidationFailed, fields...)
}

func collectFieldErrors(fields *[]FieldError, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		*fields = append(*fields, FieldError{
			Field:   jsonPointerToField(err.InstanceLocation),
			Message: err.Message,
		})
		return
	}
	for _, cause := range err.Causes {
		collectFieldErrors(fields, cause)
	}
}

func jsonPointerToField(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	return strings.ReplaceAll(ptr, "/", ".")
}

// normalizeList brings a list into canonical shape before it is validated and
// persisted: the owner leads members, ids are unique, and an id never sits in
// both task arrays.
func normalizeList(list *models.List) {
	list.Title = strings.TrimSpace(list.Title)
	if list.Color != "" && !strings.HasPrefix(list.Color, "#") {
		list.Color = "#" + list.Color
	}

	members := []string{list.Owner}
	for _, m := range list.Members {
		if m != "" && !slices.Contains(members, m) {
			members = append(members, m)
		}
	}
	list.Members = members

	list.Tasks = uniqueIDs(list.Tasks)
	list.CompletedTasks = slices.DeleteFunc(uniqueIDs(list.CompletedTasks), func(id string) bool {
		return slices.Contains(list.Tasks, id)
	})
}

func normalizeTask(task *models.Task) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Priority == "" {
		task.Priority = models.PriorityNormal
	}
	if task.Subtasks == nil {
		task.Subtasks = []models.Subtask{}
	}
	if !task.IsCompleted {
		task.CompletionDate = nil
	}
}

func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
