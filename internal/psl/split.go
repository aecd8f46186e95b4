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

import "strings"

// Split resolves a normalized domain into its subdomain and registrable-domain
// parts using idx.
//
// The candidate formed by the last two dot-delimited labels is tested against
// the index. On a match the registrable domain is the candidate plus one label
// to its left (compound TLDs such as "co.uk", "edu.ru"); otherwise it is the
// last two labels. Everything left of the boundary is the subdomain. A domain
// with no interior dot yields ("", domain). The compound interpretation always
// wins when the candidate matches.
//
// Split is a pure function of (domain, idx): it performs no I/O and yields a
// result for every input. Rejecting empty or malformed domains is the caller's
// concern; the extractor never hands over an empty domain.
//
//	Split("cloud.yandex.edu.ru", idx) == ("cloud", "yandex.edu.ru")
func Split(domain string, idx *Index) (subdomain, registrable string) {
	last := strings.LastIndexByte(domain, '.')
	if last < 0 {
		return "", domain
	}
	second := strings.LastIndexByte(domain[:last], '.')
	if second < 0 {
		return "", domain
	}

	if idx.Contains(domain[second+1:]) {
		third := strings.LastIndexByte(domain[:second], '.')
		if third < 0 {
			return "", domain
		}
		return domain[:third], domain[third+1:]
	}
	return domain[:second], domain[second+1:]
}
