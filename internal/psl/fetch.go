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
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/x-stp/leakidx/internal/client"
)

// RemoteURL is the canonical location of the public suffix list.
const RemoteURL = "https://publicsuffix.org/list/public_suffix_list.dat"

// DefaultListFile is the local filename the fetch-psl command writes by default
// and the index command's conventional suffix-list location.
const DefaultListFile = "public_suffix_list.dat"

// Fetch downloads the public suffix list over the shared HTTP client and
// returns the raw document bytes. Operation: blocking network call, honors ctx.
func Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, RemoteURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building suffix list request: %w", err)
	}

	resp, err := client.GetHTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching suffix list from %s: %w", RemoteURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d fetching suffix list (%s)", resp.StatusCode, RemoteURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading suffix list body: %w", err)
	}
	return body, nil
}
