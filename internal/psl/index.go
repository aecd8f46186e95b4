package psl

/*
leakidx — fast tool in Go for indexing credential dump archives
Copyright (C) 2025  Pepijn van der Stap <leakidx@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"strings"

	"github.com/zeebo/xxh3"
)

// Index is a read-only membership structure over the loaded suffix rules.
// Goal: O(1) "is this candidate a known suffix" queries on the splitter hot
// path without retaining the rule strings themselves.
//
// Every rule is indexed together with each of its dot-delimited tails
// ("co.uk" also registers "uk"), so the Index can answer for any 1- or
// 2-label tail of a domain. Keys are xxh3 64-bit hashes; at public-suffix-list
// cardinality (~10k rules) the collision probability is negligible.
type Index struct {
	set map[uint64]struct{}
}

// NewIndex builds an Index from suffix rules as returned by Load.
// Operation: blocking, startup-only. The result is immutable and safe for
// concurrent readers.
func NewIndex(suffixes []string) *Index {
	set := make(map[uint64]struct{}, len(suffixes)*2)
	for _, s := range suffixes {
		for {
			set[xxh3.HashString(s)] = struct{}{}
			i := strings.IndexByte(s, '.')
			if i < 0 {
				break
			}
			s = s[i+1:]
		}
	}
	return &Index{set: set}
}

// Contains reports whether candidate occurs as a known suffix.
// Hot path: one hash and one map probe, no allocation.
func (ix *Index) Contains(candidate string) bool {
	_, ok := ix.set[xxh3.HashString(candidate)]
	return ok
}

// Len returns the number of distinct indexed keys (rules plus tails).
func (ix *Index) Len() int {
	return len(ix.set)
}
