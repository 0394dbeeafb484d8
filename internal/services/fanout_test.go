package services

import (
	"errors"
	"slices"
	"testing"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-lists/internal/models"
)

func TestFanout(t *testing.T) {
	actor := Actor{UserID: "a", Name: "Ann"}

	tests := []struct {
		name string
		list *models.List
		fail map[string]error
		want []string
	}{
		{
			name: "single member",
			list: &models.List{ID: "l1", Type: models.ListTypeDefault, Members: []string{"a"}},
		},
		{
			name: "virtual list",
			list: &models.List{ID: "today", Type: models.ListTypeToday, Members: []string{"a", "b"}},
		},
		{
			name: "excludes actor",
			list: &models.List{ID: "l1", Type: models.ListTypeDefault, Members: []string{"a", "b", "c"}},
			want: []string{"b", "c"},
		},
		{
			name: "failures are dropped",
			list: &models.List{ID: "l1", Type: models.ListTypeDefault, Members: []string{"a", "b", "c"}},
			fail: map[string]error{"b": errors.New("gone")},
			want: []string{"c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &recordingNotifier{fail: tt.fail}
			f := newFanout(zerolog.Nop(), notifier)
			f.notify(t.Context(), "hello", tt.list, actor, "t1")

			var got []string
			for _, s := range notifier.take() {
				got = append(got, s.UserID)
				n := s.Notification
				if n.Title != "hello" || n.URL != "/lists/l1" || n.Tag != "l1" {
					t.Errorf("payload = %+v", n)
				}
				if n.Data["listId"] != "l1" || n.Data["taskId"] != "t1" {
					t.Errorf("data = %v", n.Data)
				}
			}
			slices.Sort(got)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("recipients = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFanoutWithoutNotifier(t *testing.T) {
	f := newFanout(zerolog.Nop(), nil)
	f.notify(t.Context(), "hello", &models.List{ID: "l1", Type: models.ListTypeDefault, Members: []string{"a", "b"}}, Actor{UserID: "a"}, "")
}
