// Package s3archive keeps copies of the raw WordPress snapshot and the
// resolved concept table in S3.
package s3archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/heartmarshall/litigation-mapper/internal/config"
	"github.com/heartmarshall/litigation-mapper/internal/domain"
	"github.com/heartmarshall/litigation-mapper/internal/source"
)

// deleteBatchSize is the DeleteObjects per-request key limit.
const deleteBatchSize = 1000

// objectAPI is the subset of the S3 client the store uses.
type objectAPI interface {
	s3.ListObjectsV2APIClient
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, opts ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Store writes archive objects under a fixed bucket and key prefix.
type Store struct {
	client objectAPI
	bucket string
	prefix string
	log    *slog.Logger
}

// New creates a Store backed by the default AWS credential chain.
func New(ctx context.Context, cfg config.AWSConfig, logger *slog.Logger) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("s3archive: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newStore(client, cfg.Bucket, cfg.Prefix, logger), nil
}

func newStore(client objectAPI, bucket, prefix string, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		log:    logger.With(slog.String("adapter", "s3archive")),
	}
}

// SnapshotKey is the object key of one raw endpoint dump.
func (s *Store) SnapshotKey(endpoint string) string {
	return path.Join(s.prefix, "wordpress", endpoint+".json")
}

// ConceptKey is the object key of one synced concept.
func (s *Store) ConceptKey(c domain.Concept) string {
	return path.Join(s.prefix, "concepts", c.Type.String()+"__"+strconv.Itoa(c.InternalID)+".json")
}

// ArchiveSnapshot uploads every endpoint of raw as its own JSON array.
func (s *Store) ArchiveSnapshot(ctx context.Context, raw source.RawSnapshot) error {
	for _, endpoint := range source.Endpoints() {
		items, ok := raw[endpoint]
		if !ok {
			continue
		}
		if err := s.putJSON(ctx, s.SnapshotKey(endpoint), items); err != nil {
			return err
		}
	}
	s.log.InfoContext(ctx, "snapshot archived", slog.Int("endpoints", len(raw)))
	return nil
}

// SyncConcepts replaces the concept archive with concepts: every existing key
// under the concepts prefix is removed before the new set is written.
func (s *Store) SyncConcepts(ctx context.Context, concepts []domain.Concept) error {
	deleted, err := s.deletePrefix(ctx, path.Join(s.prefix, "concepts")+"/")
	if err != nil {
		return err
	}

	for _, c := range concepts {
		if err := s.putJSON(ctx, s.ConceptKey(c), c.View()); err != nil {
			return err
		}
	}

	s.log.InfoContext(ctx, "concepts synced",
		slog.Int("deleted", deleted),
		slog.Int("uploaded", len(concepts)),
	)
	return nil
}

func (s *Store) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("s3archive: encode %s: %w", key, err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3archive: put %s: %w", key, err)
	}
	return nil
}

func (s *Store) deletePrefix(ctx context.Context, prefix string) (int, error) {
	var keys []types.ObjectIdentifier

	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("s3archive: list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, types.ObjectIdentifier{Key: obj.Key})
		}
	}

	for start := 0; start < len(keys); start += deleteBatchSize {
		batch := keys[start:min(start+deleteBatchSize, len(keys))]
		_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: batch, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return 0, fmt.Errorf("s3archive: delete %s: %w", prefix, err)
		}
	}
	return len(keys), nil
}
