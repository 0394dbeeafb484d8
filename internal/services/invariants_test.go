package services

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/adanyl0v/go-todo-lists/internal/models"
)

// TestRandomMutationsKeepInvariants runs a seeded sequence of list and task
// operations from several actors and checks the relationship invariants after
// every step. Engine rejections are expected along the way; anything else
// fails the test.
func TestRandomMutationsKeepInvariants(t *testing.T) {
	f := newFixture(t)
	rng := rand.New(rand.NewPCG(7, 42))

	actors := []Actor{
		f.createUser(t, "alice"),
		f.createUser(t, "bob"),
		f.createUser(t, "carol"),
	}
	var (
		listIDs []string
		taskIDs []string
	)
	for _, a := range actors {
		listIDs = append(listIDs, f.inbox(t, a).ID)
	}

	pick := func(ids []string) string {
		if len(ids) == 0 {
			return "missing"
		}
		return ids[rng.IntN(len(ids))]
	}
	pickActor := func() Actor {
		return actors[rng.IntN(len(actors))]
	}

	for step := 0; step < 400; step++ {
		actor := pickActor()
		var err error

		switch op := rng.IntN(8); op {
		case 0:
			var view *models.ListView
			view, err = f.lists.CreateList(f.ctx, actor, CreateListParams{Title: "list"})
			if err == nil {
				listIDs = append(listIDs, view.ID)
			}
		case 1:
			members := []string{actor.UserID}
			for _, other := range actors {
				if rng.IntN(2) == 0 {
					members = append(members, other.UserID)
				}
			}
			if rng.IntN(5) == 0 {
				members = members[1:]
			}
			_, err = f.lists.UpdateList(f.ctx, actor, models.RealList(pick(listIDs)), UpdateListParams{Members: members})
		case 2:
			ref := models.RealList(pick(listIDs))
			if rng.IntN(4) == 0 {
				ref = models.VirtualList(models.VirtualKinds[rng.IntN(len(models.VirtualKinds))])
			}
			var task *models.Task
			task, err = f.tasks.CreateTask(f.ctx, actor, ref, CreateTaskParams{
				Title:       "task",
				IsCompleted: rng.IntN(3) == 0,
			})
			if err == nil {
				taskIDs = append(taskIDs, task.ID)
			}
		case 3:
			done := rng.IntN(2) == 0
			_, err = f.tasks.UpdateTask(f.ctx, actor, pick(taskIDs), UpdateTaskParams{IsCompleted: &done})
		case 4:
			dest := pick(listIDs)
			done := rng.IntN(2) == 0
			_, err = f.tasks.UpdateTask(f.ctx, actor, pick(taskIDs), UpdateTaskParams{List: &dest, IsCompleted: &done})
		case 5:
			listID := pick(listIDs)
			var order []string
			if list, findErr := f.store.FindListByID(f.ctx, listID); findErr == nil {
				order = list.Tasks
				rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
				if rng.IntN(4) == 0 {
					order = append(order, "foreign")
				}
			}
			_, err = f.lists.UpdateList(f.ctx, actor, models.RealList(listID), UpdateListParams{Tasks: order})
		case 6:
			err = f.tasks.DeleteTask(f.ctx, actor, pick(taskIDs))
		case 7:
			err = f.lists.DeleteList(f.ctx, actor, models.RealList(pick(listIDs)))
		}

		if err != nil && !errors.Is(err, ErrAccess) && !errors.Is(err, ErrPermissions) && !errors.Is(err, ErrValidation) {
			t.Fatalf("step %d: unexpected error: %v", step, err)
		}
		f.checkInvariants(t)
		if t.Failed() {
			t.Fatalf("invariants broken at step %d", step)
		}
	}
	f.notifier.take()
}
