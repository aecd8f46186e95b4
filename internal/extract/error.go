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

import "errors"

// FailureKind classifies why a line could not be extracted. All kinds route to
// quarantine; the distinction exists for diagnostics and per-kind counters.
type FailureKind int

const (
	// KindNone is the zero value; never carried by a real failure.
	KindNone FailureKind = iota
	// KindNoSeparator: none of ':' ';' '@' occurs in the line, so no layout applies.
	KindNoSeparator
	// KindPatternMismatch: the layout selected by the separator scan did not
	// match. There is no fallback to the other layout.
	KindPatternMismatch
	// KindUsernameTooLong: the username exceeds the 40-byte cap enforced after
	// the pattern match.
	KindUsernameTooLong
	// KindEmptyDomain: the domain normalized to the empty string.
	KindEmptyDomain
)

// String returns the stable label used in logs and metrics.
func (k FailureKind) String() string {
	switch k {
	case KindNoSeparator:
		return "no_separator"
	case KindPatternMismatch:
		return "pattern_mismatch"
	case KindUsernameTooLong:
		return "username_too_long"
	case KindEmptyDomain:
		return "empty_domain"
	default:
		return "none"
	}
}

// failure is the concrete error type carrying a FailureKind.
type failure struct {
	kind FailureKind
	msg  string
}

// newFailure builds a classified extraction failure.
func newFailure(kind FailureKind, msg string) error {
	return &failure{kind: kind, msg: msg}
}

// Error implements the standard Go error interface.
func (f *failure) Error() string {
	return f.msg
}

// Kind returns the failure classification.
func (f *failure) Kind() FailureKind {
	return f.kind
}

// KindOf returns the FailureKind carried by err, or KindNone if err is nil or
// not an extraction failure. Callers can treat any non-KindNone result as
// "quarantine this line" while still counting per kind.
func KindOf(err error) FailureKind {
	if err == nil {
		return KindNone
	}
	var f *failure
	if errors.As(err, &f) {
		return f.kind
	}
	return KindNone
}
