package dataset

import (
	"context"
	"fmt"
	"io"

	"github.com/benmeehan/device-locations/internal/models"
	"github.com/benmeehan/device-locations/pkg/file"
	"github.com/benmeehan/device-locations/pkg/s3"
	"github.com/rs/zerolog"
)

// Source provides the full location dataset.
// A failed read returns a non-nil error; an empty dataset returns an empty
// slice and a nil error.
type Source interface {
	Fetch(ctx context.Context) ([]models.LocationSample, error)
}

// S3Source reads the dataset from a CSV object in S3-compatible storage.
type S3Source struct {
	storage s3.ObjectStorageClient
	bucket  string
	object  string
	logger  zerolog.Logger
}

// NewS3Source creates a Source for bucket/object.
func NewS3Source(storage s3.ObjectStorageClient, bucket, object string, logger zerolog.Logger) *S3Source {
	return &S3Source{
		storage: storage,
		bucket:  bucket,
		object:  object,
		logger:  logger,
	}
}

// Fetch downloads and decodes the whole object.
func (s *S3Source) Fetch(ctx context.Context) ([]models.LocationSample, error) {
	body, err := s.storage.GetObject(ctx, s.bucket, s.object)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return decode(body, s.logger.With().Str("bucket", s.bucket).Str("object", s.object).Logger())
}

// FileSource reads the dataset from a local CSV file.
type FileSource struct {
	fileClient file.FileOperations
	path       string
	logger     zerolog.Logger
}

// NewFileSource creates a Source for a local file.
func NewFileSource(fileClient file.FileOperations, path string, logger zerolog.Logger) *FileSource {
	return &FileSource{
		fileClient: fileClient,
		path:       path,
		logger:     logger,
	}
}

// Fetch reads and decodes the file.
func (f *FileSource) Fetch(ctx context.Context) ([]models.LocationSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := f.fileClient.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file %s: %w", f.path, err)
	}
	defer body.Close()

	return decode(body, f.logger.With().Str("path", f.path).Logger())
}

func decode(r io.Reader, logger zerolog.Logger) ([]models.LocationSample, error) {
	samples, rowErrors, err := DecodeCSV(r)
	if err != nil {
		return nil, err
	}

	if len(rowErrors) > 0 {
		logger.Warn().
			Int("dropped_rows", len(rowErrors)).
			Str("first_error", rowErrors[0].Error()).
			Msg("Dropped malformed dataset rows")
	}
	logger.Debug().Int("samples", len(samples)).Msg("Dataset decoded")

	return samples, nil
}
