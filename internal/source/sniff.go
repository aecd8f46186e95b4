package source

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

import "github.com/gabriel-vasile/mimetype"

// sniffLen is how many leading bytes of a member feed the detector; matches
// mimetype's own default read limit.
const sniffLen = 3072

// IsText decides whether an archive member's leading bytes look like raw
// entry text worth line-scanning.
//
// Known markup (HTML, XML) and anything outside the text/plain lineage —
// documents, images, nested archives — is rejected. Unrecognized binary
// content passes: it cannot be distinguished from odd dump encodings here,
// and the line scanner drops non-text lines individually.
func IsText(head []byte) bool {
	if len(head) == 0 {
		// Empty member: harmless, the line scan yields nothing.
		return true
	}

	mt := mimetype.Detect(head)
	if mt.Is("text/html") || mt.Is("text/xml") || mt.Is("application/xml") {
		return false
	}
	for p := mt; p != nil; p = p.Parent() {
		if p.Is("text/plain") {
			return true
		}
	}
	// Root of the detection hierarchy: no known signature matched.
	return mt.Is("application/octet-stream")
}
