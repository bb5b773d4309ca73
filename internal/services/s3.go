package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

const maxImageSize = 10 * 1024 * 1024 // 10MB

var ErrStorageDisabled = errors.New("image storage is not configured")

// ImageStore persists uploaded pictures and returns their public URL.
type ImageStore interface {
	UploadImage(ctx context.Context, prefix string, header *multipart.FileHeader) (*UploadResult, error)
	DeleteImage(ctx context.Context, key string) error
}

type UploadResult struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type S3Service struct {
	client     *s3.S3
	bucketName string
	region     string
}

func NewS3Service(region, bucketName, accessKey, secretKey string) (*S3Service, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewStaticCredentials(accessKey, secretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}

	return &S3Service{
		client:     s3.New(sess),
		bucketName: bucketName,
		region:     region,
	}, nil
}

// UploadImage stores one image under prefix/yyyy/mm/dd/<uuid><ext>.
func (s *S3Service) UploadImage(ctx context.Context, prefix string, header *multipart.FileHeader) (*UploadResult, error) {
	contentType, err := checkImage(header)
	if err != nil {
		return nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	key := fmt.Sprintf("%s/%s/%s%s", strings.Trim(prefix, "/"), time.Now().Format("2006/01/02"), uuid.New().String(), strings.ToLower(filepath.Ext(header.Filename)))

	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucketName),
		Key:          aws.String(key),
		Body:         file,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=31536000"), // 1 year cache
	})
	if err != nil {
		return nil, fmt.Errorf("upload to s3: %w", err)
	}

	return &UploadResult{
		Key:         key,
		URL:         fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucketName, s.region, key),
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
	}, nil
}

func (s *S3Service) DeleteImage(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	return err
}

// uploadImages stores every file or none: on the first failure the ones
// already stored are removed again.
func uploadImages(ctx context.Context, store ImageStore, prefix string, files []*multipart.FileHeader) ([]*UploadResult, error) {
	if store == nil {
		return nil, ErrStorageDisabled
	}
	results := make([]*UploadResult, 0, len(files))
	for i, fh := range files {
		res, err := store.UploadImage(ctx, prefix, fh)
		if err != nil {
			for _, done := range results {
				_ = store.DeleteImage(ctx, done.Key)
			}
			return nil, fmt.Errorf("file %d (%s): %w", i+1, fh.Filename, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// checkImage returns the content type of an acceptable image upload.
func checkImage(header *multipart.FileHeader) (string, error) {
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = contentTypeFromExtension(header.Filename)
	}
	if !isValidImageType(contentType) {
		return "", fieldError("images", fmt.Sprintf("invalid file type: %s", contentType))
	}
	if header.Size > maxImageSize {
		return "", fieldError("images", fmt.Sprintf("file size too large: %d bytes (max: %d bytes)", header.Size, maxImageSize))
	}
	return contentType, nil
}

func isValidImageType(contentType string) bool {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}

func contentTypeFromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
