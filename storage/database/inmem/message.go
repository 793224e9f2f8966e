package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Wrug-hu/school-portal/core/message"
)

type messageRepository struct {
	db *DB
}

var _ message.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *DB) *messageRepository {
	return &messageRepository{db: db}
}

func (repo *messageRepository) CreateMessage(ctx context.Context, m message.Message) (message.Message, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	m.ID = uuid.New().String()
	repo.db.messages[m.ID] = &m
	return m, nil
}

func (repo *messageRepository) GetMessage(ctx context.Context, id string) (message.Message, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if m, ok := repo.db.messages[id]; ok {
		return *m, nil
	}
	return message.Message{}, message.ErrNotFound
}

func (repo *messageRepository) QueryMessages(ctx context.Context, filter message.QueryFilter) ([]message.Message, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	messages := make([]message.Message, 0, len(repo.db.messages))
	for _, m := range repo.db.messages {
		if m.SenderID != filter.ParticipantID && m.RecipientID != filter.ParticipantID {
			continue
		}
		messages = append(messages, *m)
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].CreatedAt.After(messages[j].CreatedAt) })
	if filter.Limit > 0 && len(messages) > filter.Limit {
		messages = messages[:filter.Limit]
	}
	return messages, nil
}

func (repo *messageRepository) MarkMessageRead(ctx context.Context, id string) (message.Message, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	m, ok := repo.db.messages[id]
	if !ok {
		return message.Message{}, message.ErrNotFound
	}
	m.IsRead = true
	return *m, nil
}

func (repo *messageRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	count := 0
	for _, m := range repo.db.messages {
		if m.RecipientID == recipientID && !m.IsRead {
			count++
		}
	}
	return count, nil
}
