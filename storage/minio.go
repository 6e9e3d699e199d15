package storage

import (
	"io"
	"log/slog"
	"path"
	"strconv"

	"github.com/minio/minio-go/v6"
	"github.com/pkg/errors"

	"github.com/kaiakz/rcopy-os/rcopy"
)

/*
The server can mirror every file it verified into a bucket.
Objects keep the wire path (under an optional prefix) as their name,
mtime and mode travel as user metadata. Directories have no object.
*/

type Minio struct {
	client     *minio.Client
	bucketName string
	prefix     string
}

//endpoint := "127.0.0.1:9000"
//accessKeyID := "minioadmin"
//secretAccessKey := "minioadmin"

func NewMinio(bucket string, prefix string, endpoint string, accessKeyID string, secretAccessKey string, secure bool) (*Minio, error) {
	minioClient, err := minio.New(endpoint, accessKeyID, secretAccessKey, secure)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", endpoint)
	}
	// Create a bucket for the mirror
	err = minioClient.MakeBucket(bucket, "us-east-1")
	if err != nil {
		// Check to see if we already own this bucket (which happens if you run this twice)
		exists, errBucketExists := minioClient.BucketExists(bucket)
		if errBucketExists != nil || !exists {
			return nil, errors.Wrapf(err, "creating bucket %s", bucket)
		}
		slog.Debug("bucket already exists", "bucket", bucket)
	} else {
		slog.Info("created bucket", "bucket", bucket)
	}

	return &Minio{
		client:     minioClient,
		bucketName: bucket,
		prefix:     prefix,
	}, nil
}

func (m *Minio) objectName(fileName string) string {
	if m.prefix == "" {
		return fileName
	}
	return path.Join(m.prefix, fileName)
}

func (m *Minio) Put(fileName string, content io.Reader, fileSize int64, metadata rcopy.FileMetadata) (written int64, err error) {
	data := make(map[string]string)
	data["mtime"] = strconv.FormatInt(metadata.Mtime, 10)
	data["mode"] = strconv.FormatUint(uint64(metadata.Mode), 8)

	written, err = m.client.PutObject(m.bucketName, m.objectName(fileName), content, fileSize,
		minio.PutObjectOptions{UserMetadata: data})
	return written, errors.Wrapf(err, "putting %s", fileName)
}

func (m *Minio) Delete(fileName string) error {
	err := m.client.RemoveObject(m.bucketName, m.objectName(fileName))
	return errors.Wrapf(err, "removing %s", fileName)
}
