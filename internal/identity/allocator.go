// Package identity issues identifiers for jobs, users and nested
// sub-documents. Reply routing finds a thread by its id alone, so ids must
// be unique across every job and every process that writes to the store.
package identity

import "github.com/google/uuid"

type Allocator interface {
	NewID() string
}

// UUIDAllocator issues random (version 4) UUIDs.
type UUIDAllocator struct{}

func NewUUIDAllocator() UUIDAllocator { return UUIDAllocator{} }

func (UUIDAllocator) NewID() string {
	return uuid.NewString()
}

// AllocatorFunc adapts a plain function to Allocator.
type AllocatorFunc func() string

func (f AllocatorFunc) NewID() string { return f() }
