package controller

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/HasnaMouflih/chatbot-educatif-intelligent/model"
	"github.com/HasnaMouflih/chatbot-educatif-intelligent/service"
)

// fakeStore is the in-memory document store behind the handler tests.
type fakeStore struct {
	users    map[string]*model.User
	messages []model.ChatMessage
	down     bool
}

var errStoreDown = errors.New("connection refused")

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
		if m.UserID == userID && m.Timestamp.After(last[m.ChatID]) {
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
	var history []model.HistoryEntry
	for _, m := range f.messages {
		if m.ChatID == chatID && m.UserID == userID {
			history = append(history, model.HistoryEntry{Role: m.Role, Content: m.Content})
		}
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

type echoPredictor struct{}

func (echoPredictor) Predict(_ context.Context, question string) string {
	return "Réponse générée pour : " + question
}

// newTestRouter wires the real services and controllers over the fakes,
// mirroring the route table in main.
func newTestRouter(store service.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	tokens := service.NewTokenService("test-secret", time.Hour)
	users := service.NewUserService(store, tokens)
	chat := service.NewChatService(store, echoPredictor{})

	auth := NewAuthController(users, tokens, logger)
	userCtrl := NewUserController(users, logger)
	chatCtrl := NewChatController(chat, logger)

	r := gin.New()
	r.POST("/users/signup", userCtrl.Signup)
	r.POST("/users/login", userCtrl.Login)

	protected := r.Group("/", auth.TokenRequired())
	{
		protected.POST("/ask", chatCtrl.Ask)
		protected.GET("/history/ids", chatCtrl.ChatIDs)
		protected.GET("/history/:chat_id", chatCtrl.History)
		protected.DELETE("/history/:chat_id", chatCtrl.DeleteHistory)
	}
	return r
}
