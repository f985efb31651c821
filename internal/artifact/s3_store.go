// Copyright (C) 2024 The Dagu Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package artifact

import (
	"context"

	"github.com/minio/minio-go/v7"

	"github.com/pkgforge/pkgforge/internal/submitctx"
)

// S3Store promotes into an S3-compatible object-storage bucket when a
// release store is configured with an `s3://` URI. Promotion is still a
// copy (PUT to object storage); the staging file is untouched (I7).
type S3Store struct {
	Client *minio.Client
	Bucket string
	Prefix string // optional store-wide key prefix, placed before the release store name
}

func (s *S3Store) Promote(ctx context.Context, storeName string, a submitctx.ArtifactDescriptor) error {
	key := releaseKey(s.Prefix, storeName, a.Name)

	_, err := s.Client.FPutObject(ctx, s.Bucket, key, a.Path, minio.PutObjectOptions{})
	if err != nil {
		return &StoreError{Kind: "Copy", Path: key, Err: err}
	}
	return nil
}

// releaseKey builds the object key a release is stored under: an optional
// store-wide prefix, then the release store name, then the artifact's
// staged file name.
func releaseKey(prefix, storeName, name string) string {
	key := storeName + "/" + name
	if prefix != "" {
		key = prefix + "/" + key
	}
	return key
}

// NewS3Store dials an S3-compatible endpoint for use as a release store
// backend.
func NewS3Store(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*S3Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  minioCredentials(accessKey, secretKey),
		Secure: useSSL,
	})
	if err != nil {
		return nil, &StoreError{Kind: "Copy", Path: bucket, Err: err}
	}
	return &S3Store{Client: cli, Bucket: bucket}, nil
}
