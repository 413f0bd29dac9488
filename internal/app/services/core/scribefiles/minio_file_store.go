package scribefiles

import (
	"context"
	"io"
	"strings"

	"scribe-service/internal/app/contracts"
	"scribe-service/internal/app/models"
	"scribe-service/internal/pkg/exceptions"

	"github.com/minio/minio-go/v7"
)

type minioFileStore struct {
	client *minio.Client
	bucket string
}

func NewMinioFileStore(client *minio.Client, bucket string) contracts.FileStore {
	return &minioFileStore{client: client, bucket: bucket}
}

func (s *minioFileStore) FetchBytes(ctx context.Context, file *models.ScribeFile) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucket, file.ObjectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, exceptions.ErrMinioFetchObject(err, s.bucket)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, exceptions.ErrMinioFetchObject(err, s.bucket)
	}
	return data, nil
}

func (s *minioFileStore) InternalExtension(file *models.ScribeFile) string {
	idx := strings.LastIndex(file.InternalName, ".")
	if idx < 0 || idx == len(file.InternalName)-1 {
		return ""
	}
	return strings.ToLower(file.InternalName[idx+1:])
}
