// Package s3store implements the remote.Store contract on top of S3 or any
// S3-compatible endpoint using the AWS SDK v2.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/reelpipe/uplink/internal/remote"
)

// Config holds the settings for an S3-backed store.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: custom S3-compatible endpoint
	AccessKeyID     string // Optional: static credentials
	SecretAccessKey string
}

// Store uploads objects into a single bucket. Folders are key prefixes; a
// zero-byte marker object pins each resolved folder so create-or-get is
// observable and idempotent.
type Store struct {
	client *s3.Client
	bucket string
	region string
}

// New constructs a Store from config. When static credentials are absent
// the SDK default chain applies.
func New(ctx context.Context, cfg Config) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &Store{
		client: s3.NewFromConfig(awsCfg, clientOpts...),
		bucket: cfg.Bucket,
		region: cfg.Region,
	}, nil
}

// GetOrCreateFolder resolves pathSegments to a key prefix and writes a
// marker object for it. PutObject on an existing key is a no-op overwrite,
// so concurrent calls for the same path converge on one folder.
func (s *Store) GetOrCreateFolder(ctx context.Context, pathSegments []string) (string, error) {
	prefix := folderPrefix(pathSegments)
	if prefix == "" {
		return "", fmt.Errorf("empty folder path")
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(prefix + ".keep"),
		Body:   strings.NewReader(""),
	})
	if err != nil {
		return "", fmt.Errorf("create folder %s: %w", prefix, err)
	}
	return prefix, nil
}

// Upload streams src into folderID under displayName. Progress is reported
// from the request body reader, so a cancelled context stops it mid-stream.
func (s *Store) Upload(ctx context.Context, src remote.Source, folderID, displayName string, onProgress remote.ProgressFunc) (*remote.Object, error) {
	body, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer body.Close()

	key := folderID + displayName
	reader := remote.NewProgressReader(body, src.Size(), onProgress)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          reader,
		ContentLength: aws.Int64(src.Size()),
		ContentType:   aws.String(src.ContentType()),
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	if onProgress != nil {
		onProgress(src.Size(), src.Size())
	}

	return &remote.Object{
		RemoteID:  key,
		Link:      fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key),
		SizeBytes: src.Size(),
	}, nil
}

// Delete removes the object. A missing key is success: S3 DeleteObject is
// already idempotent, so no NotFound mapping is needed.
func (s *Store) Delete(ctx context.Context, remoteID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(remoteID),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", remoteID, err)
	}
	return nil
}

// Exists reports whether the object is still present.
func (s *Store) Exists(ctx context.Context, remoteID string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(remoteID),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("head %s: %w", remoteID, err)
	}
	return true, nil
}

// folderPrefix joins non-empty segments into a trailing-slash key prefix.
func folderPrefix(segments []string) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		seg = strings.Trim(seg, "/")
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "/") + "/"
}
