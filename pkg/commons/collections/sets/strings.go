// Copyright (c) 2025 Allen Institute
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sets provides set collection types.
package sets

import (
	"fmt"
	"sort"
)

// NewStrings creates a new Strings set initialized with the specified values
func NewStrings(values ...string) *Strings {
	set := &Strings{values: make(map[string]struct{}, len(values))}
	for _, value := range values {
		set.values[value] = struct{}{}
	}
	return set
}

// Strings is a set of strings. It is not safe for concurrent use.
type Strings struct {
	values map[string]struct{}
}

// Add adds the value to the set.
// It returns false if the set already contained the value.
func (a *Strings) Add(value string) bool {
	if _, exists := a.values[value]; exists {
		return false
	}
	a.values[value] = struct{}{}
	return true
}

// Remove removes the value from the set.
// It returns false if the set did not contain the value.
func (a *Strings) Remove(value string) bool {
	if _, exists := a.values[value]; !exists {
		return false
	}
	delete(a.values, value)
	return true
}

// Contains returns true if the set contains the value
func (a *Strings) Contains(value string) bool {
	_, exists := a.values[value]
	return exists
}

// ContainsAll returns true if the set contains every value in the other set.
// An empty other set is not contained by any set.
func (a *Strings) ContainsAll(other *Strings) bool {
	if other.Empty() {
		return false
	}
	for value := range other.values {
		if !a.Contains(value) {
			return false
		}
	}
	return true
}

// Equals returns true if both sets contain exactly the same values
func (a *Strings) Equals(other *Strings) bool {
	if a.Size() != other.Size() {
		return false
	}
	return a.ContainsAll(other)
}

// Size returns the number of values in the set
func (a *Strings) Size() int {
	return len(a.values)
}

// Empty returns true if the set has no values
func (a *Strings) Empty() bool {
	return len(a.values) == 0
}

// Values returns the set values sorted in ascending order
func (a *Strings) Values() []string {
	values := make([]string, 0, len(a.values))
	for value := range a.values {
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}

// Clear removes all values from the set
func (a *Strings) Clear() {
	a.values = make(map[string]struct{})
}

func (a *Strings) String() string {
	return fmt.Sprintf("%v", a.Values())
}
