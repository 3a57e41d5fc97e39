package lexicon

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BuiltinScheme prefixes embedded dataset names, e.g. "builtin:run".
const BuiltinScheme = "builtin:"

// S3Options configures access to datasets stored in S3 or an
// S3-compatible store.
type S3Options struct {
	Region          string `yaml:"region" toml:"region"`
	Endpoint        string `yaml:"endpoint" toml:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `yaml:"access_key_id" toml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" toml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style" toml:"use_path_style"`
}

// ObjectGetter is the part of the S3 client OpenDataset uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// OpenDataset loads a dataset from a URI: "builtin:<name>",
// "s3://bucket/key" or a file path.
func OpenDataset(ctx context.Context, uri string, opts S3Options) (Dataset, error) {
	switch {
	case strings.HasPrefix(uri, BuiltinScheme):
		return Builtin(strings.TrimPrefix(uri, BuiltinScheme))
	case strings.HasPrefix(uri, "s3://"):
		client, err := NewS3Client(ctx, opts)
		if err != nil {
			return Dataset{}, err
		}
		return LoadDatasetS3(ctx, client, uri)
	case uri == "":
		return Dataset{}, fmt.Errorf("%w: empty source", ErrUnknownDataset)
	}
	path, _ := LocalPath(uri)
	return LoadDatasetFile(path)
}

// LocalPath returns the file a dataset URI names, or false for built-in
// and S3 datasets.
func LocalPath(uri string) (string, bool) {
	if uri == "" || strings.HasPrefix(uri, BuiltinScheme) || strings.HasPrefix(uri, "s3://") {
		return "", false
	}
	return strings.TrimPrefix(uri, "file://"), true
}

// NewS3Client builds an S3 client from the default AWS configuration
// chain, overridden by opts.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	var loaders []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loaders = append(loaders, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	}), nil
}

// LoadDatasetS3 fetches and parses a dataset object.
func LoadDatasetS3(ctx context.Context, client ObjectGetter, uri string) (Dataset, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return Dataset{}, err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Dataset{}, fmt.Errorf("get %s: %w", uri, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return Dataset{}, fmt.Errorf("read %s: %w", uri, err)
	}
	ds, err := ParseDataset(data, FormatOf(key))
	if err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", uri, err)
	}
	if ds.Name == "" {
		ds.Name = strings.TrimSuffix(path.Base(key), path.Ext(key))
	}
	return ds, nil
}

func parseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s: %w", ErrUnknownDataset, uri, err)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if u.Scheme != "s3" || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %s: want s3://bucket/key", ErrUnknownDataset, uri)
	}
	return bucket, key, nil
}
