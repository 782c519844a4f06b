package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"video-portal/cmd/config"
)

// Client stores video files in one bucket.
type Client struct {
	svc      *s3.S3
	uploader *s3manager.Uploader
	bucket   string
}

func New(cfg config.Storage) (*Client, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return &Client{
		svc:      s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		bucket:   cfg.Bucket,
	}, nil
}

func (c *Client) Bucket() string { return c.bucket }

// EnsureContainer creates the bucket when it does not exist yet. Failures are
// logged and otherwise ignored; a later upload reports the real problem.
func (c *Client) EnsureContainer(ctx context.Context) {
	_, err := c.svc.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err == nil {
		return
	}
	if !isNotFound(err) {
		log.Printf("Failed to check bucket %s: %v", c.bucket, err)
		return
	}

	_, err = c.svc.CreateBucketWithContext(ctx, &s3.CreateBucketInput{Bucket: aws.String(c.bucket)})
	var aerr awserr.Error
	switch {
	case err == nil:
		log.Printf("Created bucket %s", c.bucket)
	case errors.As(err, &aerr) && (aerr.Code() == s3.ErrCodeBucketAlreadyOwnedByYou || aerr.Code() == s3.ErrCodeBucketAlreadyExists):
		log.Printf("Bucket %s already exists", c.bucket)
	default:
		log.Printf("Failed to create bucket %s: %v", c.bucket, err)
	}
}

// Store uploads body under name and returns the object's URL.
func (c *Client) Store(ctx context.Context, name string, body io.Reader, contentType string) (string, error) {
	input := &s3manager.UploadInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(name),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	result, err := c.uploader.UploadWithContext(ctx, input)
	if err != nil {
		log.Printf("Failed to upload file to S3: %v", err)
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return result.Location, nil
}

// DeleteIfExists removes the object. A missing object is not an error.
func (c *Client) DeleteIfExists(ctx context.Context, name string) error {
	_, err := c.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(name),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case "NotFound", s3.ErrCodeNoSuchBucket, s3.ErrCodeNoSuchKey:
			return true
		}
	}
	return false
}

// ObjectName derives a collision-resistant object name from the upload time
// and the original filename with all whitespace removed.
func ObjectName(filename string, now time.Time) string {
	base := strings.Join(strings.Fields(path.Base(strings.ReplaceAll(filename, "\\", "/"))), "")
	if base == "" || base == "." || base == "/" {
		base = "video"
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), base)
}

// NameFromURL recovers the object name from a URL returned by Store.
func NameFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse object url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("object url %q has no object name", raw)
	}
	return name, nil
}
