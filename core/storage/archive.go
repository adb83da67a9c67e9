package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
)

// ErrObjectNotFound is returned when no object matches a name or prefix.
var ErrObjectNotFound = errors.New("object not found")

// EnsureBucket creates bucket when it does not exist yet.
func EnsureBucket(ctx context.Context, client Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

// PutBytes uploads data as a single object.
func PutBytes(ctx context.Context, client Client, bucket, name string, data []byte, contentType string) error {
	_, err := client.PutObject(ctx, bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return nil
}

// Download reads an object fully into memory.
func Download(ctx context.Context, client Client, bucket, name string) ([]byte, error) {
	obj, err := client.GetObject(ctx, bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, fmt.Errorf("%s: %w", name, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// Latest returns the most recently modified object under prefix.
func Latest(ctx context.Context, client Client, bucket, prefix string) (minio.ObjectInfo, error) {
	var latest minio.ObjectInfo
	found := false

	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return minio.ObjectInfo{}, fmt.Errorf("failed to list %s: %w", prefix, obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		if !found || obj.LastModified.After(latest.LastModified) {
			latest = obj
			found = true
		}
	}

	if !found {
		return minio.ObjectInfo{}, fmt.Errorf("%s: %w", prefix, ErrObjectNotFound)
	}
	return latest, nil
}

// Prune keeps the newest keep run folders under prefix and deletes the rest.
// Folder names must sort chronologically. It returns the number of deleted objects.
func Prune(ctx context.Context, client Client, bucket, prefix string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	root := strings.TrimSuffix(prefix, "/") + "/"
	folders := make(map[string][]minio.ObjectInfo)
	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: root, Recursive: true}) {
		if obj.Err != nil {
			return 0, fmt.Errorf("failed to list %s: %w", root, obj.Err)
		}
		rel := strings.TrimPrefix(obj.Key, root)
		folder, _, ok := strings.Cut(rel, "/")
		if !ok {
			continue
		}
		folders[folder] = append(folders[folder], obj)
	}

	if len(folders) <= keep {
		return 0, nil
	}

	names := make([]string, 0, len(folders))
	for name := range folders {
		names = append(names, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	var doomed []minio.ObjectInfo
	for _, name := range names[keep:] {
		doomed = append(doomed, folders[name]...)
	}

	objectsCh := make(chan minio.ObjectInfo, len(doomed))
	for _, obj := range doomed {
		objectsCh <- obj
	}
	close(objectsCh)

	var errs []error
	for rerr := range client.RemoveObjects(ctx, bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		errs = append(errs, fmt.Errorf("%s: %w", rerr.ObjectName, rerr.Err))
	}
	if len(errs) > 0 {
		return len(doomed) - len(errs), errors.Join(errs...)
	}
	return len(doomed), nil
}

// ArchiveKey joins the archive prefix, run folder and file name into an object key.
func ArchiveKey(prefix, folder, name string) string {
	return path.Join(prefix, folder, name)
}
