package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/A-Yoshitsugu/crossborder/internal/domain"
)

// S3Config locates a CSV catalog object in S3 or an S3-compatible store (MinIO, R2)
type S3Config struct {
	Bucket string
	Key    string
	Region string

	// Endpoint overrides the AWS endpoint. Leave empty for AWS S3.
	Endpoint string

	// AccessKey and SecretKey select static credentials; when empty the
	// default AWS credential chain is used.
	AccessKey string
	SecretKey string

	ForcePathStyle bool
}

// S3Loader reads the catalog CSV from an object store
type S3Loader struct {
	client *s3.Client
	bucket string
	key    string
	logger *zap.Logger
}

// NewS3Loader builds the S3 client. No request is made until Load.
func NewS3Loader(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3Loader, error) {
	if cfg.Bucket == "" || cfg.Key == "" {
		return nil, errors.New("catalog: s3 bucket and key are required")
	}
	if cfg.Region == "" {
		return nil, errors.New("catalog: s3 region is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("catalog: load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := normaliseEndpoint(cfg.Endpoint)
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &S3Loader{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
		key:    cfg.Key,
		logger: logger,
	}, nil
}

func (l *S3Loader) Load(ctx context.Context) ([]domain.CatalogCandidate, error) {
	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(l.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("catalog: s3://%s/%s does not exist", l.bucket, l.key)
		}
		return nil, fmt.Errorf("catalog: get s3://%s/%s: %w", l.bucket, l.key, err)
	}
	defer out.Body.Close()

	candidates, rejected, err := ParseCSV(out.Body)
	if err != nil {
		return nil, fmt.Errorf("catalog: s3://%s/%s: %w", l.bucket, l.key, err)
	}
	logRejected(l.logger, "s3://"+l.bucket+"/"+l.key, rejected)
	return candidates, nil
}

// normaliseEndpoint adds an https scheme when the endpoint has none
func normaliseEndpoint(endpoint string) string {
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		return endpoint
	}
	return "https://" + endpoint
}

var _ domain.CatalogLoader = (*S3Loader)(nil)
