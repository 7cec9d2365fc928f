// Package icons hands out presigned S3 URLs for group icon objects.
package icons

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Settings locate the bucket. BaseEndpoint points at an S3-compatible
// server such as MinIO.
type Settings struct {
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	BaseEndpoint string
	Expiry       time.Duration
}

const defaultExpiry = 15 * time.Minute

// S3Store presigns PUT and GET requests for icon objects.
type S3Store struct {
	settings Settings

	once    sync.Once
	presign *s3.PresignClient
	err     error
}

func NewS3Store(s Settings) *S3Store {
	if s.Expiry <= 0 {
		s.Expiry = defaultExpiry
	}
	return &S3Store{settings: s}
}

// KeyPrefix is the object prefix reserved for groupID.
func KeyPrefix(groupID int64) string {
	return fmt.Sprintf("groups/%d/", groupID)
}

// OwnsKey reports whether key was issued for groupID.
func OwnsKey(groupID int64, key string) bool {
	rest, ok := strings.CutPrefix(key, KeyPrefix(groupID))
	return ok && rest != "" && !strings.Contains(rest, "/")
}

func (s *S3Store) client(ctx context.Context) (*s3.PresignClient, error) {
	s.once.Do(func() {
		cfg, err := loadDefaultAWSConfig(ctx,
			config.WithRegion(s.settings.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				s.settings.AccessKey,
				s.settings.SecretKey,
				"",
			)))
		if err != nil {
			s.err = fmt.Errorf("load aws config: %w", err)
			return
		}

		client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(s.settings.BaseEndpoint)
			o.UsePathStyle = true
		})
		s.presign = newS3PresignClient(client)
	})
	return s.presign, s.err
}

// UploadURL allocates a fresh object key for groupID and presigns a PUT.
func (s *S3Store) UploadURL(ctx context.Context, groupID int64) (key, url string, err error) {
	pc, err := s.client(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := s.settings.Bucket
	key = KeyPrefix(groupID) + uuid.NewString()

	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.settings.Expiry))
	if err != nil {
		return "", "", fmt.Errorf("presign put: %w", err)
	}
	return key, req.URL, nil
}

// DownloadURL presigns a GET for key.
func (s *S3Store) DownloadURL(ctx context.Context, key string) (string, error) {
	pc, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.settings.Bucket
	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.settings.Expiry))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}
