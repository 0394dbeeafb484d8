package postgres

import (
	"testing"

	"github.com/adanyl0v/go-todo-lists/internal/models"
	"github.com/adanyl0v/go-todo-lists/internal/storage"
)

func TestWhereList(t *testing.T) {
	tests := []struct {
		name     string
		filter   storage.ListFilter
		where    string
		argCount int
	}{
		{name: "empty", filter: storage.ListFilter{}, where: "TRUE"},
		{name: "id", filter: storage.ListFilter{ID: "l1"}, where: "id = $1", argCount: 1},
		{
			name:     "delete guard",
			filter:   storage.ListFilter{ID: "l1", Member: "u1", Type: models.ListTypeDefault},
			where:    "id = $1 AND $2 = ANY(members) AND type = $3",
			argCount: 3,
		},
		{
			name:     "inbox lookup",
			filter:   storage.ListFilter{Owner: "u1", Type: models.ListTypeInbox},
			where:    "owner = $1 AND type = $2",
			argCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := whereList(tt.filter)
			if where != tt.where {
				t.Errorf("where = %q, want %q", where, tt.where)
			}
			if len(args) != tt.argCount {
				t.Errorf("got %d args, want %d", len(args), tt.argCount)
			}
		})
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	script, err := migrationsFS.ReadFile("migrations/0001_init.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if len(script) == 0 {
		t.Fatal("migration is empty")
	}
}
