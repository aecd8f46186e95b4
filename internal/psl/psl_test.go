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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleList = `// This Source Code Form is subject to the terms of the MPL.

// ===BEGIN ICANN DOMAINS===

com

// uk : https://www.gov.uk/
uk
co.uk

ru
edu.ru

// ===END ICANN DOMAINS===
// ===BEGIN PRIVATE DOMAINS===

// GitHub, Inc.
github.io
`

func TestLoadStopsAtPrivateDomains(t *testing.T) {
	t.Parallel()
	suffixes, err := Load(strings.NewReader(sampleList))
	require.NoError(t, err)
	assert.Equal(t, []string{"com", "uk", "co.uk", "ru", "edu.ru"}, suffixes)
	assert.NotContains(t, suffixes, "github.io")
}

func TestLoadSkipsBlankAndCommentLines(t *testing.T) {
	t.Parallel()
	suffixes, err := Load(strings.NewReader("// leading comment\n\n  com  \n\n// trailing comment\nnet\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"com", "net"}, suffixes)
}

func TestLoadEmptyInput(t *testing.T) {
	t.Parallel()
	suffixes, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, suffixes)
}

func TestIndexContainsRulesAndTails(t *testing.T) {
	t.Parallel()
	idx := NewIndex([]string{"com", "co.uk", "edu.ru"})

	assert.True(t, idx.Contains("com"))
	assert.True(t, idx.Contains("co.uk"))
	assert.True(t, idx.Contains("edu.ru"))
	// 1-label tails of compound rules are answerable too.
	assert.True(t, idx.Contains("uk"))
	assert.True(t, idx.Contains("ru"))

	assert.False(t, idx.Contains("org"))
	assert.False(t, idx.Contains("co"))
	assert.False(t, idx.Contains(""))
}

func TestIndexWildcardRulesAreInert(t *testing.T) {
	t.Parallel()
	idx := NewIndex([]string{"*.ck", "!www.ck"})
	// Raw wildcard/exception rules never equal a label tail of a real domain.
	assert.False(t, idx.Contains("north.ck"))
	assert.True(t, idx.Contains("ck"))
}
