package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/peterparker57/WSLSnapit-MCP/internal/config"
)

// S3Provider mirrors captures to an S3 or S3-compatible bucket.
type S3Provider struct {
	bucket   string
	prefix   string
	uploader *manager.Uploader
}

// NewS3Provider builds the S3 client from the archive config. Static
// credentials are optional; without them the default AWS credential
// chain applies. A custom endpoint switches to path-style addressing
// for S3-compatible stores.
func NewS3Provider(ctx context.Context, cfg config.ArchiveConfig) (*S3Provider, error) {
	if cfg.S3Bucket == "" {
		return nil, errors.New("archive provider s3 requires archive.s3_bucket")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" && cfg.S3SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Provider{
		bucket:   cfg.S3Bucket,
		prefix:   strings.Trim(cfg.S3Prefix, "/"),
		uploader: manager.NewUploader(client),
	}, nil
}

func (p *S3Provider) Name() string { return "s3" }

// Store uploads the capture. File-mode captures are always PNG, whatever
// extension the caller picked for the filename.
func (p *S3Provider) Store(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()

	if p.prefix != "" {
		key = path.Join(p.prefix, key)
	}
	_, err = p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", p.bucket, key, err)
	}
	return nil
}
