package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis hashes backing the mock api catalogue.
const (
	HBooks      string = "books"
	HReviews    string = "reviews"
	HUsers      string = "users"
	HUserEmails string = "users:emails"
)

type redisCatalogStorage struct {
	logger *zap.Logger
	client *redis.Client
}

// NewRedisCatalogStorage provides an instance of redis-based catalogue storage.
func NewRedisCatalogStorage(logger *zap.Logger, client *redis.Client) CatalogStorage {
	return &redisCatalogStorage{
		logger: logger,
		client: client,
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// AddBook inserts a new book record.
func (rs *redisCatalogStorage) AddBook(ctx context.Context, book Book) error {
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return err
	}
	return rs.client.HSet(ctx, HBooks, book.ID, bookBytes).Err()
}

// Books retrieves all book records in a stable creation order.
func (rs *redisCatalogStorage) Books(ctx context.Context) ([]Book, error) {
	values, err := rs.client.HVals(ctx, HBooks).Result()
	if err != nil {
		return nil, err
	}
	books := []Book{}
	for _, bookJSONString := range values {
		var book Book
		if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	sortBooks(books)
	return books, nil
}

// AddReview inserts a new review record.
func (rs *redisCatalogStorage) AddReview(ctx context.Context, review Review) error {
	reviewBytes, err := json.Marshal(review)
	if err != nil {
		return err
	}
	return rs.client.HSet(ctx, HReviews, review.ID, reviewBytes).Err()
}

// ReviewsByBook retrieves all reviews of a given book in creation order.
func (rs *redisCatalogStorage) ReviewsByBook(ctx context.Context, bookID string) ([]Review, error) {
	values, err := rs.client.HVals(ctx, HReviews).Result()
	if err != nil {
		return nil, err
	}
	reviews := []Review{}
	for _, reviewJSONString := range values {
		var review Review
		if err = json.Unmarshal([]byte(reviewJSONString), &review); err != nil {
			return nil, err
		}
		if review.BookID == bookID {
			reviews = append(reviews, review)
		}
	}
	sortReviews(reviews)
	return reviews, nil
}

// AddUser inserts a new account record and indexes its email.
func (rs *redisCatalogStorage) AddUser(ctx context.Context, user StoredUser) error {
	userBytes, err := json.Marshal(user)
	if err != nil {
		return err
	}
	set, err := rs.client.HSetNX(ctx, HUserEmails, user.Email, user.ID).Result()
	if err != nil {
		return err
	}
	if !set {
		return ErrEmailTaken
	}
	return rs.client.HSet(ctx, HUsers, user.ID, userBytes).Err()
}

// UserByEmail retrieves an account record based on its email.
func (rs *redisCatalogStorage) UserByEmail(ctx context.Context, email string) (StoredUser, error) {
	id, err := rs.client.HGet(ctx, HUserEmails, email).Result()
	if err == redis.Nil {
		return StoredUser{}, ErrUserNotFound
	}
	if err != nil {
		return StoredUser{}, err
	}
	return rs.UserByID(ctx, id)
}

// UserByID retrieves an account record based on its id.
func (rs *redisCatalogStorage) UserByID(ctx context.Context, id string) (StoredUser, error) {
	var user StoredUser
	userJSONString, err := rs.client.HGet(ctx, HUsers, id).Result()
	if err == redis.Nil {
		return user, ErrUserNotFound
	}
	if err != nil {
		return user, err
	}
	err = json.Unmarshal([]byte(userJSONString), &user)
	return user, err
}
