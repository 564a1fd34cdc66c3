package types

import "time"

type DLQRetryConfig struct {
	DatabaseName   string
	CollectionName string
	RetryInterval  time.Duration
	MaxRetryCount  int
	BackoffFactor  float64
	BatchSize      int
}

func DefaultDLQRetryConfig() DLQRetryConfig {
	return DLQRetryConfig{
		DatabaseName:   "bauchat",
		CollectionName: "notification_dlq",
		RetryInterval:  5 * time.Minute,
		MaxRetryCount:  5,
		BackoffFactor:  2.0,
		BatchSize:      20,
	}
}
