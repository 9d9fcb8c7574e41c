package services

import "github.com/google/uuid"

// IDGenerator produces ids for newly accepted records.
type IDGenerator func() string

// NewID is the default IDGenerator.
func NewID() string {
	return uuid.NewString()
}
