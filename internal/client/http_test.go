package client

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
	"net/http"
	"testing"
)

func TestGetHTTPClientInitializesDefaults(t *testing.T) {
	sharedClient = nil
	clientInitialized = false

	c := GetHTTPClient()
	if c == nil {
		t.Fatal("expected non-nil client")
	}

	tr, ok := c.Transport.(*http.Transport)
	if !ok || tr == nil {
		t.Fatalf("expected *http.Transport, got %T", c.Transport)
	}
	if tr.MaxIdleConns == 0 {
		t.Fatalf("expected MaxIdleConns defaulted, got %d", tr.MaxIdleConns)
	}
	if c.Timeout == 0 {
		t.Fatal("expected request timeout defaulted")
	}
}

func TestInitHTTPClientFillsZeroFields(t *testing.T) {
	sharedClient = nil
	clientInitialized = false

	InitHTTPClient(&Config{MaxIdleConns: 3})
	c := GetHTTPClient()

	tr, ok := c.Transport.(*http.Transport)
	if !ok || tr == nil {
		t.Fatalf("expected *http.Transport, got %T", c.Transport)
	}
	if tr.MaxIdleConns != 3 {
		t.Fatalf("expected MaxIdleConns 3, got %d", tr.MaxIdleConns)
	}
	if tr.IdleConnTimeout == 0 {
		t.Fatal("expected IdleConnTimeout defaulted")
	}
}
