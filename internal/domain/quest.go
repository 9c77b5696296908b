package domain

import "time"

// QuestKind names what a daily quest counts.
type QuestKind string

const QuestMessages QuestKind = "messages"

// Quest is a user's daily objective. It is created on the first counted
// message of the day and cleared when claimed or when quests reset.
type Quest struct {
	UserID    int64     `db:"user_id" json:"-"`
	Kind      QuestKind `db:"kind" json:"kind"`
	Target    int64     `db:"target" json:"target"`
	Progress  int64     `db:"progress" json:"progress"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (q *Quest) Done() bool {
	return q.Progress >= q.Target
}
