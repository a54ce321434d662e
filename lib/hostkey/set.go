// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostkey

import (
	"iter"
	"slices"
)

// Set is a sorted collection of distinct host keys. The zero Set is
// empty and ready to use. Not safe for concurrent mutation.
type Set struct {
	keys []HostKey
}

func (s *Set) search(key HostKey) (int, bool) {
	return slices.BinarySearchFunc(s.keys, key, Compare)
}

// Add inserts key. It reports false if an equal key was already present.
func (s *Set) Add(key HostKey) bool {
	index, found := s.search(key)
	if found {
		return false
	}
	s.keys = slices.Insert(s.keys, index, key)
	return true
}

// Contains reports whether an equal key is present.
func (s *Set) Contains(key HostKey) bool {
	_, found := s.search(key)
	return found
}

// Remove deletes the key equal to key. It reports whether one was present.
func (s *Set) Remove(key HostKey) bool {
	index, found := s.search(key)
	if !found {
		return false
	}
	s.keys = slices.Delete(s.keys, index, index+1)
	return true
}

// Len returns the number of keys.
func (s *Set) Len() int { return len(s.keys) }

// All iterates over the keys in ascending order.
func (s *Set) All() iter.Seq[HostKey] {
	return slices.Values(s.keys)
}
