// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package source

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"os"

	"github.com/pkgforge/pkgforge/internal/pkgrepo"
)

// Verify re-hashes the file at path and compares it against want, failing
// with Error{Kind: "HashMismatch"} on any mismatch.
func Verify(path string, want pkgrepo.Hash) error {
	h, err := newHash(want.Algo)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return &Error{Kind: "HashMismatch", Key: path, Err: err}
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return &Error{Kind: "HashMismatch", Key: path, Err: err}
	}

	got := hex.EncodeToString(h.Sum(nil))
	if got != want.Hex {
		return &Error{Kind: "HashMismatch", Key: path, Err: errMismatch(want.Hex, got)}
	}
	return nil
}

func newHash(algo string) (hash.Hash, error) {
	switch algo {
	case "sha256", "":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	default:
		return nil, &Error{Kind: "HashMismatch", Key: algo, Err: errUnsupportedAlgo(algo)}
	}
}

type mismatchError struct{ want, got string }

func (e mismatchError) Error() string { return "want " + e.want + ", got " + e.got }

func errMismatch(want, got string) error { return mismatchError{want, got} }

type unsupportedAlgoError struct{ algo string }

func (e unsupportedAlgoError) Error() string { return "unsupported hash algorithm " + e.algo }

func errUnsupportedAlgo(algo string) error { return unsupportedAlgoError{algo} }
