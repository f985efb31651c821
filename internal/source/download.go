// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package source

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/pkgforge/pkgforge/internal/pkgrepo"
)

// fetch downloads src into dest, dispatching on the URL scheme. http(s)
// sources use resty (the teacher's own HTTP client, used the same way its
// internal/upgrade package fetches GitHub release assets); sftp sources use
// pkg/sftp over golang.org/x/crypto/ssh, grounded on the teacher's ssh
// executor for connection-option shape (user/host/port/password/key).
func fetch(ctx context.Context, src pkgrepo.Source, dest string, sshCfg *SSHConfig) error {
	u, err := url.Parse(src.URL)
	if err != nil {
		return &Error{Kind: "Download", Key: src.Key, Err: err}
	}

	switch u.Scheme {
	case "http", "https":
		return fetchHTTP(ctx, src.URL, dest)
	case "sftp":
		return fetchSFTP(ctx, u, dest, sshCfg)
	default:
		return &Error{Kind: "UnsupportedScheme", Key: src.Key, Err: errScheme(u.Scheme)}
	}
}

func fetchHTTP(ctx context.Context, rawURL, dest string) error {
	out, err := os.Create(dest)
	if err != nil {
		return &Error{Kind: "Download", Key: rawURL, Err: err}
	}
	defer out.Close()

	client := resty.New()
	resp, err := client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return &Error{Kind: "Download", Key: rawURL, Err: err}
	}
	defer resp.RawBody().Close()

	if resp.IsError() {
		return &Error{Kind: "Download", Key: rawURL, Err: errStatus(resp.StatusCode())}
	}

	if _, err := out.ReadFrom(resp.RawBody()); err != nil {
		return &Error{Kind: "Download", Key: rawURL, Err: err}
	}
	return nil
}

type schemeError struct{ scheme string }

func (e schemeError) Error() string { return "unsupported source URL scheme " + e.scheme }

func errScheme(scheme string) error { return schemeError{scheme} }

type statusError struct{ code int }

func (e statusError) Error() string {
	return "unexpected HTTP status " + strconv.Itoa(e.code) + " " + http.StatusText(e.code)
}

func errStatus(code int) error { return statusError{code} }
