package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/labkeeper/internal/common"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// s3API is the part of *s3.Client the store uses.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Config struct {
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Prefix       string
}

// S3Store keeps blobs in an S3 compatible bucket. Locators are
// s3://<object key>.
type S3Store struct {
	client s3API
	bucket string
	prefix string
	newID  common.IDGenerator
}

func NewS3Store(ctx context.Context, c S3Config, newID common.IDGenerator) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKey,
			c.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	if newID == nil {
		newID = common.NewID
	}
	return &S3Store{client: client, bucket: c.Bucket, prefix: c.Prefix, newID: newID}, nil
}

func (s *S3Store) Write(ctx context.Context, data []byte, filename string) (string, error) {
	objectKey := path.Join(s.prefix, s.newID(), sanitize(filename))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("%w: put %s: %v", common.ErrStorageUnavailable, objectKey, err)
	}
	return locator(SchemeS3, objectKey), nil
}

func (s *S3Store) Read(ctx context.Context, loc string) ([]byte, error) {
	objectKey, ok := key(loc, SchemeS3)
	if !ok || objectKey == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, loc)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, loc)
		}
		return nil, fmt.Errorf("get %s: %w", objectKey, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", objectKey, err)
	}
	return data, nil
}
