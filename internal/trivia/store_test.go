package trivia

import (
	"testing"

	"github.com/jacl-coder/TriviaStorm-Server/internal/models"
)

func TestSessionStoreMonotonicIDs(t *testing.T) {
	store := NewSessionStore()

	var last int64
	for i := 0; i < 10; i++ {
		session := store.Create(func(id int64) *models.Session {
			return &models.Session{ID: id, Status: models.SessionCreated}
		})
		if session.ID <= last {
			t.Fatalf("ID未单调递增: %d <= %d", session.ID, last)
		}
		last = session.ID
	}

	if store.Count() != 10 {
		t.Errorf("Count = %d, 期望 10", store.Count())
	}
}

func TestSessionStoreGet(t *testing.T) {
	store := NewSessionStore()

	created := store.Create(func(id int64) *models.Session {
		return &models.Session{ID: id, Status: models.SessionCreated}
	})

	got, ok := store.Get(created.ID)
	if !ok || got.ID != created.ID {
		t.Fatalf("Get(%d)未找到已创建的对局", created.ID)
	}

	if _, ok := store.Get(created.ID + 999); ok {
		t.Error("Get返回了不存在的对局")
	}
}

func TestSessionStoreListByStatus(t *testing.T) {
	store := NewSessionStore()

	for i := 0; i < 3; i++ {
		store.Create(func(id int64) *models.Session {
			return &models.Session{ID: id, Status: models.SessionCreated}
		})
	}
	active := store.Create(func(id int64) *models.Session {
		return &models.Session{ID: id, Status: models.SessionActive}
	})

	created := store.List(models.SessionCreated)
	if len(created) != 3 {
		t.Errorf("List(created)返回%d个, 期望 3", len(created))
	}

	actives := store.List(models.SessionActive)
	if len(actives) != 1 || actives[0].ID != active.ID {
		t.Errorf("List(active)结果不正确: %+v", actives)
	}

	all := store.List("")
	if len(all) != 4 {
		t.Errorf("List(\"\")返回%d个, 期望 4", len(all))
	}
}
