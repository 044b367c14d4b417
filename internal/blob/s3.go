// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blob

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/newsroomhq/newsdesk/internal/util"
)

// DefaultReadURLTTL is how long presigned read URLs stay valid.
const DefaultReadURLTTL = time.Hour

// S3Config configures the S3 backend.
type S3Config struct {
	Bucket       string
	Region       string
	Endpoint     string // optional, for MinIO and other S3-compatible stores
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	ReadURLTTL   time.Duration
}

// S3 stores objects in an S3 bucket and hands out presigned URLs.
type S3 struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	readTTL time.Duration
}

// NewS3 creates an S3 backend. Static credentials are used when both keys
// are set, otherwise the default AWS credential chain applies.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	readTTL := cfg.ReadURLTTL
	if readTTL <= 0 {
		readTTL = DefaultReadURLTTL
	}

	return &S3{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		readTTL: readTTL,
	}, nil
}

// GenerateUploadURL presigns a PutObject request for key.
func (s *S3) GenerateUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (Upload, error) {
	if err := util.ValidateBlobKey(key); err != nil {
		return Upload{}, err
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	req, err := s.presign.PresignPutObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		return Upload{}, fmt.Errorf("presigning upload: %w", err)
	}

	headers := make(map[string]string, len(req.SignedHeader))
	for name, values := range req.SignedHeader {
		if len(values) > 0 && name != "Host" {
			headers[name] = values[0]
		}
	}

	return Upload{
		Key:       key,
		URL:       req.URL,
		Method:    http.MethodPut,
		Headers:   headers,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}, nil
}

// URL presigns a GetObject request for key.
func (s *S3) URL(ctx context.Context, key string) (string, error) {
	if err := util.ValidateBlobKey(key); err != nil {
		return "", err
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.readTTL))
	if err != nil {
		return "", fmt.Errorf("presigning read: %w", err)
	}
	return req.URL, nil
}

// Delete removes key from the bucket. S3 reports success for missing keys.
func (s *S3) Delete(ctx context.Context, key string) error {
	if err := util.ValidateBlobKey(key); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting object: %w", err)
	}
	return nil
}
