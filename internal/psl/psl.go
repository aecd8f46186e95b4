// Package psl loads the public suffix list and answers registrability
// questions about domain names.
//
// The list is read once at startup into an immutable Index; everything that
// needs suffix knowledge receives the Index explicitly instead of reaching
// for package-level state.
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
	"bufio"
	"fmt"
	"io"
	"strings"
)

// PrivateDomainsSentinel marks the start of the privately-registered section of
// the public suffix list. Rules after it are registrant-controlled (github.io
// and friends) and must not act as registrability boundaries, so loading stops
// there permanently.
const PrivateDomainsSentinel = "// ===BEGIN PRIVATE DOMAINS"

// commentPrefix introduces a comment line in the list format.
const commentPrefix = "//"

// Load reads the ICANN section of a public suffix list from r.
//
// Blank lines and // comments are dropped. Wildcard and exception rules are
// kept verbatim; they never equal a label tail so they are inert in the Index.
// Reading stops at the private domains sentinel.
func Load(r io.Reader) ([]string, error) {
	// ~9.7k ICANN rules in the current list.
	suffixes := make([]string, 0, 10240)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		if strings.HasPrefix(line, PrivateDomainsSentinel) {
			break
		}
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}
		suffixes = append(suffixes, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed reading suffix list: %w", err)
	}
	return suffixes, nil
}
