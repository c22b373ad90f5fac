// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

// Package blob serves recorded game files from S3-compatible storage.
//
// Recs are stored zlib-compressed under a two-level hash fan-out:
//
//	ab/cd/abcdef....mgc
//
// Downloads are packaged as a zip holding one entry named after the file
// originally uploaded.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zlib"
	"golang.org/x/time/rate"

	"github.com/tomtom215/aocrecs/internal/config"
	"github.com/tomtom215/aocrecs/internal/database"
	"github.com/tomtom215/aocrecs/internal/logging"
	"github.com/tomtom215/aocrecs/internal/metrics"
)

var (
	// ErrNotFound is returned when the file or its object does not exist.
	ErrNotFound = errors.New("blob: not found")

	// ErrNotConfigured is returned when no bucket is configured.
	ErrNotConfigured = errors.New("blob: storage not configured")
)

// maxRecSize bounds a decompressed rec.
const maxRecSize = 64 << 20

// ObjectGetter is the subset of the S3 client used for downloads.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Archive is a packaged rec ready to send.
type Archive struct {
	Name string
	Data []byte
}

// Downloader fetches and packages recs.
type Downloader struct {
	client  ObjectGetter
	bucket  string
	store   database.Querier
	limiter *rate.Limiter
}

// New creates a Downloader from cfg using static credentials when given and
// the default AWS chain otherwise.
func New(ctx context.Context, cfg config.StorageConfig, store database.Querier) (*Downloader, error) {
	if cfg.Bucket == "" {
		return nil, ErrNotConfigured
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("blob: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(normalizeEndpoint(cfg.Endpoint))
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewDownloader(client, cfg.Bucket, store, cfg.DownloadsPerSecond, cfg.DownloadBurst), nil
}

// NewDownloader creates a Downloader over client. A non-positive perSecond
// disables throttling.
func NewDownloader(client ObjectGetter, bucket string, store database.Querier, perSecond float64, burst int) *Downloader {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Downloader{
		client:  client,
		bucket:  bucket,
		store:   store,
		limiter: rate.NewLimiter(limit, max(burst, 1)),
	}
}

// ObjectKey returns the storage key of the rec with hash.
func ObjectKey(hash string) string {
	if len(hash) < 4 {
		return hash + ".mgc"
	}
	return path.Join(hash[0:2], hash[2:4], hash+".mgc")
}

// Archive looks up a file by id and returns its rec packaged as a zip.
func (d *Downloader) Archive(ctx context.Context, fileID int64) (*Archive, error) {
	row, err := d.store.FetchOne(ctx,
		`SELECT hash, original_filename FROM files WHERE id = @id`,
		map[string]any{"id": fileID})
	if errors.Is(err, database.ErrNoRows) {
		return nil, fmt.Errorf("%w: file %d", ErrNotFound, fileID)
	}
	if err != nil {
		return nil, fmt.Errorf("blob: lookup file %d: %w", fileID, err)
	}

	name := entryName(row.String("original_filename"), fileID)
	rec, err := d.Fetch(ctx, row.String("hash"))
	if err == nil {
		var data []byte
		data, err = Zip(name, rec, time.Now())
		if err == nil {
			metrics.RecordDownload(len(data), nil)
			logging.Ctx(ctx).Debug().Int64("file_id", fileID).Int("bytes", len(data)).Msg("Rec packaged")
			return &Archive{Name: name + ".zip", Data: data}, nil
		}
	}
	metrics.RecordDownload(0, err)
	return nil, err
}

// entryName reduces an uploaded file name to a bare base name. Uploads from
// Windows clients carry backslash separators, and control characters are
// dropped so the name is safe in a zip entry and a response header.
func entryName(original string, fileID int64) string {
	name := path.Base(strings.ReplaceAll(original, `\`, "/"))
	name = strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name))
	if name == "" || name == "." || name == ".." || name == "/" {
		return fmt.Sprintf("%d.mgz", fileID)
	}
	return name
}

// Fetch downloads and decompresses the rec with hash.
func (d *Downloader) Fetch(ctx context.Context, hash string) ([]byte, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("blob: throttle: %w", err)
	}

	key := ObjectKey(hash)
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("blob: get %s: %w", key, err)
	}
	defer func() {
		if cerr := out.Body.Close(); cerr != nil {
			logging.Ctx(ctx).Warn().Err(cerr).Str("key", key).Msg("Failed to close object body")
		}
	}()

	rec, err := Decompress(out.Body)
	if err != nil {
		return nil, fmt.Errorf("blob: %s: %w", key, err)
	}
	return rec, nil
}

// Decompress inflates a zlib stream.
func Decompress(r io.Reader) ([]byte, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	defer zr.Close()

	data, err := io.ReadAll(io.LimitReader(zr, maxRecSize+1))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	if len(data) > maxRecSize {
		return nil, fmt.Errorf("decompress: rec exceeds %d bytes", maxRecSize)
	}
	return data, nil
}

// Zip wraps data in a deflated zip entry called name.
func Zip(name string, data []byte, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}
	return buf.Bytes(), nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var httpErr interface{ HTTPStatusCode() int }
	return errors.As(err, &httpErr) && httpErr.HTTPStatusCode() == 404
}

func normalizeEndpoint(endpoint string) string {
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" {
		return endpoint
	}
	return "https://" + endpoint
}
