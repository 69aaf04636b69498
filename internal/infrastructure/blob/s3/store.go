// Package s3 stores entry attachments in an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/logbook/logbook-service/internal/core/domain"
	"github.com/logbook/logbook-service/internal/core/ports"
)

const (
	defaultPrefix      = "attachments"
	defaultTrashPrefix = "trash"
)

// Config captures the bucket coordinates and credentials.
type Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	TrashPrefix   string
}

// API is the subset of the S3 client the store uses.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Store implements ports.BlobStore. Refs are object keys; trashing copies the
// object under the trash prefix and removes the public copy.
type Store struct {
	api         API
	bucket      string
	baseURL     string
	trashPrefix string
}

// NewClient builds an S3 client with static credentials and an optional
// custom endpoint, which is how MinIO and other compatible stores are reached.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func NewStore(api API, cfg Config) *Store {
	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = cfg.Endpoint
	}
	trash := strings.Trim(cfg.TrashPrefix, "/")
	if trash == "" {
		trash = defaultTrashPrefix
	}
	return &Store{
		api:         api,
		bucket:      cfg.Bucket,
		baseURL:     strings.TrimRight(baseURL, "/"),
		trashPrefix: trash,
	}
}

// Put uploads obj under a fresh key with a public-read ACL.
func (s *Store) Put(ctx context.Context, obj ports.BlobObject) (domain.Attachment, error) {
	key := s.newKey(obj.Name)

	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(obj.Data),
		ContentLength: aws.Int64(int64(len(obj.Data))),
		ContentType:   aws.String(obj.MimeType),
		ACL:           types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("put %s: %w", key, err)
	}

	return domain.Attachment{Ref: key, URL: s.viewURL(key)}, nil
}

// Trash moves the object to the trash prefix. An unknown ref is an error.
func (s *Store) Trash(ctx context.Context, ref string) error {
	if _, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	}); err != nil {
		return fmt.Errorf("head %s: %w", ref, err)
	}

	dst := path.Join(s.trashPrefix, ref)
	if _, err := s.api.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(dst),
		CopySource: aws.String(copySource(s.bucket, ref)),
		ACL:        types.ObjectCannedACLPrivate,
	}); err != nil {
		return fmt.Errorf("copy %s to trash: %w", ref, err)
	}

	if _, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	}); err != nil {
		return fmt.Errorf("delete %s: %w", ref, err)
	}
	return nil
}

// Ping checks the bucket is reachable. It backs the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

// newKey builds a key under the attachments prefix. The name is reduced to
// [A-Za-z0-9._-] so keys never need escaping in URLs or copy sources.
func (s *Store) newKey(name string) string {
	name = strings.Trim(strings.Map(safeKeyRune, name), "_")
	if name == "" {
		return path.Join(defaultPrefix, uuid.NewString())
	}
	return path.Join(defaultPrefix, name+"-"+uuid.NewString())
}

func safeKeyRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return r
	case r == '.' || r == '-' || r == '_':
		return r
	}
	return '_'
}

// copySource is the URL-encoded bucket/key form CopyObject expects.
func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}

func (s *Store) viewURL(key string) string {
	return s.baseURL + "/" + s.bucket + "/" + key
}
