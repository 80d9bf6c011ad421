package main

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

type boltSessionStorage struct {
	logger *zap.Logger
	client *bolt.DB
	config *SessionConfig
}

// GetBoltDBClient setup the session database and its bucket then provides
// a ready to use client.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	db, err := bolt.Open(config.Session.FilePath, 0o600, &bolt.Options{Timeout: config.Session.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the session database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, errB := tx.CreateBucketIfNotExists([]byte(config.Session.BucketName)); errB != nil {
			return fmt.Errorf("failed to create %s bucket: %v", config.Session.BucketName, errB)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up bucket: %v", err)
	}
	return db, nil
}

// NewBoltSessionStorage provides an instance of bolt-based session storage.
func NewBoltSessionStorage(logger *zap.Logger, sessionConfig *SessionConfig, client *bolt.DB) SessionStorage {
	return &boltSessionStorage{
		logger: logger,
		client: client,
		config: sessionConfig,
	}
}

// Get retrieves the value of a persisted session field.
func (bs *boltSessionStorage) Get(_ context.Context, key string) (string, error) {
	// initialize a readable transaction.
	tx, err := bs.client.Begin(false)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	result := tx.Bucket([]byte(bs.config.BucketName)).Get([]byte(key))
	if result == nil {
		return "", ErrSessionKeyNotFound
	}
	return string(result), nil
}

// Set writes the value of a persisted session field.
func (bs *boltSessionStorage) Set(_ context.Context, key, value string) error {
	return bs.client.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bs.config.BucketName)).Put([]byte(key), []byte(value))
	})
}

// Delete removes a set of persisted session fields in a single transaction.
func (bs *boltSessionStorage) Delete(_ context.Context, keys ...string) error {
	return bs.client.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bs.config.BucketName))
		for _, key := range keys {
			if err := bucket.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}
