package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	// ErrUserExists is returned by CreateUser when the username is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned by FindUser when no document matches.
	ErrUserNotFound = errors.New("user not found")
)

const queryTimeout = 5 * time.Second

// Store wraps the two collections the service uses. It is constructed once
// in main and handed to the services; nothing else touches the driver.
type Store struct {
	client   *mongo.Client
	users    *mongo.Collection
	messages *mongo.Collection
}

func NewStore(client *mongo.Client, dbName string) *Store {
	db := client.Database(dbName)
	return &Store{
		client:   client,
		users:    db.Collection("users"),
		messages: db.Collection("chat_history"),
	}
}

// Ping reports whether the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary())
}

// FindUser looks a user up by username.
func (s *Store) FindUser(ctx context.Context, username string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user User
	err := s.users.FindOne(ctx, bson.M{"_id": username}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	return &user, nil
}

// CreateUser inserts the user, relying on the _id uniqueness of the
// collection for insert-if-absent semantics. Two concurrent signups with
// the same username cannot both succeed.
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// LogExchange persists a question/answer pair in a single write.
func (s *Store) LogExchange(ctx context.Context, messages []ChatMessage) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	docs := make([]interface{}, 0, len(messages))
	for _, m := range messages {
		docs = append(docs, m)
	}
	if _, err := s.messages.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to log exchange: %w", err)
	}
	return nil
}

// ChatIDs returns the distinct chat ids owned by userID, most recently
// active first.
func (s *Store) ChatIDs(ctx context.Context, userID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"user_id": userID}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":  "$chat_id",
			"last": bson.M{"$max": "$timestamp"},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"last": -1}}},
	}
	cursor, err := s.messages.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("chat id aggregation failed: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		ChatID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("chat id aggregation failed: %w", err)
	}

	chatIDs := make([]string, 0, len(results))
	for _, r := range results {
		chatIDs = append(chatIDs, r.ChatID)
	}
	return chatIDs, nil
}

// History returns the messages of one chat in creation order, projected to
// role and content.
func (s *Store) History(ctx context.Context, chatID, userID string) ([]HistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}}).
		SetProjection(bson.M{"_id": 0, "role": 1, "content": 1})
	cursor, err := s.messages.Find(ctx, bson.M{"chat_id": chatID, "user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("history query failed: %w", err)
	}
	defer cursor.Close(ctx)

	var history []HistoryEntry
	if err := cursor.All(ctx, &history); err != nil {
		return nil, fmt.Errorf("history query failed: %w", err)
	}
	return history, nil
}

// DeleteHistory removes every message of one chat for one user and reports
// how many documents went away. Zero is not an error.
func (s *Store) DeleteHistory(ctx context.Context, chatID, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := s.messages.DeleteMany(ctx, bson.M{"chat_id": chatID, "user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("history deletion failed: %w", err)
	}
	return result.DeletedCount, nil
}
