package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/HasnaMouflih/chatbot-educatif-intelligent/model"
)

var errStoreDown = errors.New("connection refused")

// fakeStore is an in-memory Store used by the service and controller
// tests. Setting down simulates an unreachable document store.
type fakeStore struct {
	users    map[string]*model.User
	messages []model.ChatMessage
	down     bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*model.User)}
}

func (f *fakeStore) FindUser(_ context.Context, username string) (*model.User, error) {
	if f.down {
		return nil, errStoreDown
	}
	user, ok := f.users[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeStore) CreateUser(_ context.Context, user *model.User) error {
	if f.down {
		return errStoreDown
	}
	if _, exists := f.users[user.Username]; exists {
		return model.ErrUserExists
	}
	f.users[user.Username] = user
	return nil
}

func (f *fakeStore) LogExchange(_ context.Context, messages []model.ChatMessage) error {
	if f.down {
		return errStoreDown
	}
	f.messages = append(f.messages, messages...)
	return nil
}

func (f *fakeStore) ChatIDs(_ context.Context, userID string) ([]string, error) {
	if f.down {
		return nil, errStoreDown
	}
	last := make(map[string]time.Time)
	for _, m := range f.messages {
		if m.UserID != userID {
			continue
		}
		if m.Timestamp.After(last[m.ChatID]) {
			last[m.ChatID] = m.Timestamp
		}
	}
	chatIDs := make([]string, 0, len(last))
	for id := range last {
		chatIDs = append(chatIDs, id)
	}
	sort.Slice(chatIDs, func(i, j int) bool {
		return last[chatIDs[i]].After(last[chatIDs[j]])
	})
	return chatIDs, nil
}

func (f *fakeStore) History(_ context.Context, chatID, userID string) ([]model.HistoryEntry, error) {
	if f.down {
		return nil, errStoreDown
	}
	var matched []model.ChatMessage
	for _, m := range f.messages {
		if m.ChatID == chatID && m.UserID == userID {
			matched = append(matched, m)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})
	history := make([]model.HistoryEntry, 0, len(matched))
	for _, m := range matched {
		history = append(history, model.HistoryEntry{Role: m.Role, Content: m.Content})
	}
	return history, nil
}

func (f *fakeStore) DeleteHistory(_ context.Context, chatID, userID string) (int64, error) {
	if f.down {
		return 0, errStoreDown
	}
	var kept []model.ChatMessage
	var deleted int64
	for _, m := range f.messages {
		if m.ChatID == chatID && m.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	f.messages = kept
	return deleted, nil
}
