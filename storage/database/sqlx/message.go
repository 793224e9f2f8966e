package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Wrug-hu/school-portal/core/message"
)

type messageRepository struct {
	db *sqlx.DB
}

var _ message.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *sqlx.DB) *messageRepository {
	return &messageRepository{db: db}
}

type messageRow struct {
	ID          string      `db:"id"`
	SenderID    string      `db:"sender_id"`
	RecipientID string      `db:"recipient_id"`
	Subject     null.String `db:"subject"`
	Content     string      `db:"content"`
	IsRead      bool        `db:"is_read"`
	CreatedAt   time.Time   `db:"created_at"`
}

func (row messageRow) message() message.Message {
	return message.Message(row)
}

func (repo messageRepository) CreateMessage(ctx context.Context, m message.Message) (message.Message, error) {
	m.ID = uuid.New().String()
	row := messageRow(m)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO message (id, sender_id, recipient_id, subject, content, is_read, created_at)
		VALUES (:id, :sender_id, :recipient_id, :subject, :content, :is_read, :created_at)`,
		row,
	)
	if err != nil {
		return message.Message{}, errors.Wrap(err, "inserting message")
	}
	return row.message(), nil
}

func (repo messageRepository) GetMessage(ctx context.Context, id string) (message.Message, error) {
	var row messageRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM message WHERE id = $1`, id); err != nil {
		return message.Message{}, trapNoRowsErr(err, message.ErrNotFound, "getting message")
	}
	return row.message(), nil
}

func (repo messageRepository) QueryMessages(ctx context.Context, filter message.QueryFilter) ([]message.Message, error) {
	q := `SELECT * FROM message WHERE sender_id = $1 OR recipient_id = $1 ORDER BY created_at DESC`
	args := []interface{}{filter.ParticipantID}
	if filter.Limit > 0 {
		q += ` LIMIT $2`
		args = append(args, filter.Limit)
	}

	var rows []messageRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}
	messages := make([]message.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, row.message())
	}
	return messages, nil
}

func (repo messageRepository) MarkMessageRead(ctx context.Context, id string) (message.Message, error) {
	var row messageRow
	err := repo.db.GetContext(ctx, &row, `UPDATE message SET is_read = true WHERE id = $1 RETURNING *`, id)
	if err != nil {
		return message.Message{}, trapNoRowsErr(err, message.ErrNotFound, "marking message read")
	}
	return row.message(), nil
}

func (repo messageRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM message WHERE recipient_id = $1 AND NOT is_read`, recipientID)
	if err != nil {
		return 0, errors.Wrap(err, "counting unread messages")
	}
	return count, nil
}
