package service

import (
	"context"
	"time"

	"github.com/HasnaMouflih/chatbot-educatif-intelligent/model"
)

// Predictor is the inference collaborator. It is total: it always returns
// an answer string, absorbing its own failures.
type Predictor interface {
	Predict(ctx context.Context, question string) string
}

type ChatService struct {
	store     Store
	predictor Predictor
}

func NewChatService(store Store, predictor Predictor) *ChatService {
	return &ChatService{store: store, predictor: predictor}
}

// Ask answers the question and logs the exchange as a user/assistant pair
// owned by userID. Once the caller is authenticated, the only way this can
// fail is the log write.
func (s *ChatService) Ask(ctx context.Context, userID, chatID, question string) (string, error) {
	answer := s.predictor.Predict(ctx, question)

	now := time.Now().UTC()
	pair := []model.ChatMessage{
		{
			UserID:    userID,
			ChatID:    chatID,
			Role:      model.RoleUser,
			Content:   question,
			Timestamp: now,
		},
		{
			UserID:    userID,
			ChatID:    chatID,
			Role:      model.RoleAssistant,
			Content:   answer,
			Timestamp: now.Add(time.Millisecond),
		},
	}
	if err := s.store.LogExchange(ctx, pair); err != nil {
		return "", ErrStoreUnavailable
	}
	return answer, nil
}

// ChatIDs lists the caller's conversations, most recently active first.
func (s *ChatService) ChatIDs(ctx context.Context, userID string) ([]string, error) {
	chatIDs, err := s.store.ChatIDs(ctx, userID)
	if err != nil {
		return nil, ErrStoreUnavailable
	}
	return chatIDs, nil
}

// History returns one conversation in creation order. An empty result is
// ErrNotFound: a chat that never existed, was deleted, or belongs to
// someone else all look the same to the caller.
func (s *ChatService) History(ctx context.Context, userID, chatID string) ([]model.HistoryEntry, error) {
	history, err := s.store.History(ctx, chatID, userID)
	if err != nil {
		return nil, ErrStoreUnavailable
	}
	if len(history) == 0 {
		return nil, ErrNotFound
	}
	return history, nil
}

// DeleteHistory removes one conversation. Deleting nothing is still a
// success, so the operation is idempotent.
func (s *ChatService) DeleteHistory(ctx context.Context, userID, chatID string) (int64, error) {
	deleted, err := s.store.DeleteHistory(ctx, chatID, userID)
	if err != nil {
		return 0, ErrStoreUnavailable
	}
	return deleted, nil
}
