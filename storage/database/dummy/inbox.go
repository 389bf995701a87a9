package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/mentora/core/inbox"
)

type messageRepository struct {
	db *messageTable
}

var _ inbox.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *DB) inbox.Repository {
	return &messageRepository{db: db.message}
}

func (repo *messageRepository) CreateMessage(_ context.Context, msg inbox.Message) (inbox.Message, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table = append(repo.db.table, msg)
	return msg, nil
}

func (repo *messageRepository) QueryThread(_ context.Context, learnerID, lessonID string) ([]inbox.Message, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	msgs := make([]inbox.Message, 0)
	for _, m := range repo.db.table {
		if m.LearnerID == learnerID && m.LessonID == lessonID {
			msgs = append(msgs, m)
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs, nil
}

func (repo *messageRepository) QueryThreads(_ context.Context) ([]inbox.Thread, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	type key struct{ learnerID, lessonID string }
	idx := make(map[key]int)
	threads := make([]inbox.Thread, 0)

	for _, m := range repo.db.table {
		k := key{m.LearnerID, m.LessonID}
		i, ok := idx[k]
		if !ok {
			idx[k] = len(threads)
			threads = append(threads, inbox.Thread{LearnerID: m.LearnerID, LessonID: m.LessonID})
			i = len(threads) - 1
		}
		threads[i].MessageCount++
		if m.CreatedAt.After(threads[i].LastMessageAt) {
			threads[i].LastMessageAt = m.CreatedAt
		}
	}
	return threads, nil
}

func (repo *messageRepository) DeleteLearnerMessages(_ context.Context, learnerIDs ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	del := make(map[string]bool, len(learnerIDs))
	for _, id := range learnerIDs {
		del[id] = true
	}
	kept := repo.db.table[:0]
	for _, m := range repo.db.table {
		if !del[m.LearnerID] {
			kept = append(kept, m)
		}
	}
	repo.db.table = kept
	return nil
}
