package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/infrastructure/monitoring/logging"
	miniostore "github.com/hartonomous/substrate/internal/infrastructure/storage/minio"
)

// sourceScheme is the "minio://bucket/key" prefix a subcommand's file
// argument may carry instead of a local path, letting an ingester stream its
// source blob (a HuggingFace tensor shard, a Wiktionary dump, a UD
// treebank...) straight out of object storage so it can run as a stateless
// worker with no shared filesystem.
const sourceScheme = "minio://"

// openSource resolves path to a readable source blob: a "minio://bucket/key"
// reference is downloaded through an ObjectRepository built from cfg, and
// anything else is opened as a local file.
func openSource(ctx context.Context, cfg config.MinIOConfig, logger logging.Logger, path string) (io.ReadCloser, error) {
	if !strings.HasPrefix(path, sourceScheme) {
		return os.Open(path)
	}

	ref := strings.TrimPrefix(path, sourceScheme)
	bucket, key, ok := strings.Cut(ref, "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("invalid minio source %q: want minio://bucket/key", path)
	}

	client, err := miniostore.NewMinIOClient(toMinIOClientConfig(cfg, bucket), logger)
	if err != nil {
		return nil, fmt.Errorf("connect minio: %w", err)
	}
	repo := miniostore.NewMinIORepository(client, logger)

	result, err := repo.Download(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", bucket, key, err)
	}
	logger.Info("source blob downloaded",
		logging.String("bucket", bucket),
		logging.String("key", key),
		logging.Int("bytes", int(result.Size)),
	)
	return io.NopCloser(bytes.NewReader(result.Data)), nil
}

// toMinIOClientConfig adapts config.MinIOConfig (this system's single
// "ingestion source" bucket) to miniostore.MinIOConfig, which still carries
// a multi-bucket shape (documents/models/reports/exports/temp/attachments)
// — every bucket field points at the same configured bucket since an
// ingestion source archive has no use for that distinction.
func toMinIOClientConfig(cfg config.MinIOConfig, bucket string) *miniostore.MinIOConfig {
	if bucket == "" {
		bucket = cfg.Bucket
	}
	return &miniostore.MinIOConfig{
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKey,
		SecretAccessKey: cfg.SecretKey,
		UseSSL:          cfg.UseSSL,
		DefaultBucket:   bucket,
		Buckets: miniostore.BucketConfig{
			Documents:   bucket,
			Models:      bucket,
			Reports:     bucket,
			Exports:     bucket,
			Temp:        bucket,
			Attachments: bucket,
		},
		PresignExpiry: cfg.PresignExpiry,
	}
}
