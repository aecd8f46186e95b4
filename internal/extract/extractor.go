// Package extract parses single credential-dump lines into
// (username, domain, password) triples.
//
// Two line layouts are accepted, selected deterministically by whichever
// separator appears first in the line; there is no fallback from one layout to
// the other. Failures are classified (see FailureKind) and always routed to
// quarantine by the caller.
package extract

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
	"regexp"
	"strings"
)

// MaxUsernameLen caps usernames independently of the pattern's own bounds.
// A username may match the pattern (up to 35 chars per group, 10 groups) and
// still be rejected here.
const MaxUsernameLen = 40

// Pattern sub-expressions shared by both layouts.
//
// username: alphanumeric runs optionally joined by one of _ - . per group;
// domain: hyphen/alphanumeric labels (<=63 chars, no edge hyphen) joined by one
// or two dots, with up to ten trailing dots tolerated outside the capture.
const (
	usernamePattern = `[a-zA-Z0-9]{1,35}(?:[_\-.][a-zA-Z0-9]{0,35}){0,10}`
	domainPattern   = `(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.{1,2})+[a-zA-Z0-9][a-zA-Z0-9]{0,61}[a-zA-Z0-9]`
)

// Extractor holds the compiled layout matchers. Construct once with New and
// pass explicitly; an Extractor is immutable and safe for concurrent use.
type Extractor struct {
	// credentialsFirst matches `username[:;]password@domain` (layout A).
	// Capture order: username, password, domain.
	credentialsFirst *regexp.Regexp
	// domainFirst matches `username@domain[:;]password` (layout B).
	// Capture order: username, domain, password.
	domainFirst *regexp.Regexp
}

// Entry is a successfully extracted triple. Domain is already normalized
// (trimmed, lowercased, ".." collapsed) but not yet split into
// subdomain/registrable parts; that is the splitter's job.
type Entry struct {
	Username string
	Domain   string
	Password string
}

// New compiles both layout patterns.
func New() *Extractor {
	return &Extractor{
		credentialsFirst: regexp.MustCompile(`^(` + usernamePattern + `)[:;](.+)@(` + domainPattern + `)\.{0,10}$`),
		domainFirst:      regexp.MustCompile(`^(` + usernamePattern + `)@(` + domainPattern + `)\.{0,10}[:;](.+)$`),
	}
}

// Extract parses one trimmed line into an Entry or a classified failure.
//
// The layout is chosen by the first occurrence of ':', ';' or '@': a password
// separator first selects layout A, '@' first selects layout B. Only the
// selected layout's pattern is attempted. The password capture is greedy and
// may itself contain '@', ':' or ';'.
func (e *Extractor) Extract(line string) (Entry, error) {
	sep := strings.IndexAny(line, ":;@")
	if sep < 0 {
		return Entry{}, newFailure(KindNoSeparator, "no layout separator in line")
	}

	var username, domain, password string
	if line[sep] == '@' {
		m := e.domainFirst.FindStringSubmatch(line)
		if m == nil {
			return Entry{}, newFailure(KindPatternMismatch, "line does not match domain-first layout")
		}
		username, domain, password = m[1], m[2], m[3]
	} else {
		m := e.credentialsFirst.FindStringSubmatch(line)
		if m == nil {
			return Entry{}, newFailure(KindPatternMismatch, "line does not match credentials-first layout")
		}
		username, password, domain = m[1], m[2], m[3]
	}

	if len(username) > MaxUsernameLen {
		return Entry{}, newFailure(KindUsernameTooLong, "username exceeds 40 characters")
	}

	domain = strings.TrimSpace(domain)
	if domain == "" {
		return Entry{}, newFailure(KindEmptyDomain, "domain is empty")
	}
	// Single-pass collapse: "..." leaves a residual dot pair untouched.
	domain = strings.ReplaceAll(strings.ToLower(domain), "..", ".")

	return Entry{Username: username, Domain: domain, Password: password}, nil
}
