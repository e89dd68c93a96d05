package archive

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"interview-backend/internal/shared/telemetry"
	"interview-backend/internal/store"
)

var contentTypeByExt = map[string]string{
	".webm": "video/webm",
	".mp4":  "video/mp4",
	".json": "application/json",
}

// S3Archiver copies a finished session's folder (manifest plus landed
// recordings) to S3. It is invoked best-effort after EndSession; failures
// are logged by the caller and never affect session state.
type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

// New creates an S3Archiver for the given bucket.
func New(ctx context.Context, region, bucket, prefix string) (*S3Archiver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &S3Archiver{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: normalizePrefix(prefix),
	}, nil
}

// ArchiveSession uploads the session's manifest and every ledgered
// recording under <prefix><folderName>/.
func (a *S3Archiver) ArchiveSession(ctx context.Context, s *store.Session, uploads []store.UploadRecord) error {
	if s.FolderPath == "" {
		return fmt.Errorf("session %s has no folder to archive", s.SessionID)
	}

	folder := s.FolderName
	if folder == "" {
		folder = s.SessionID
	}

	names := []string{"metadata.json"}
	for _, u := range uploads {
		names = append(names, u.Filename)
	}

	for _, name := range names {
		if err := a.putFile(ctx, filepath.Join(s.FolderPath, name), path.Join(a.prefix+folder, name)); err != nil {
			return err
		}
		telemetry.Info("archive.object_uploaded", map[string]any{
			"session_id": s.SessionID,
			"key":        path.Join(a.prefix+folder, name),
		})
	}
	return nil
}

func (a *S3Archiver) putFile(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	contentType := contentTypeByExt[strings.ToLower(filepath.Ext(localPath))]
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return ""
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.TrimPrefix(prefix, "/")
}
