package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/google/uuid"
	"github.com/kendall-kelly/bloomhouse-api/utils"
)

// ImageService stores flower photos and hands out URLs for them
type ImageService interface {
	// UploadFlowerImage validates and stores an image for a flower, returning its storage key
	UploadFlowerImage(ctx context.Context, flowerID uint, fileHeader *multipart.FileHeader) (string, error)

	// GetImageURL returns a URL for reading the image stored under key
	GetImageURL(ctx context.Context, key string) (string, error)

	// DeleteImage removes the image stored under key
	DeleteImage(ctx context.Context, key string) error
}

// S3ImageService implements ImageService on top of S3Interface
type S3ImageService struct {
	store S3Interface
}

var imageServiceInstance ImageService

// InitImageService installs an S3-backed image service as the shared instance
func InitImageService(store S3Interface) ImageService {
	imageServiceInstance = NewS3ImageService(store)
	return imageServiceInstance
}

// NewS3ImageService creates an image service over store
func NewS3ImageService(store S3Interface) *S3ImageService {
	return &S3ImageService{store: store}
}

// GetImageService returns the shared image service, nil when image storage is not configured
func GetImageService() ImageService {
	return imageServiceInstance
}

// SetImageService sets the image service instance (primarily for testing)
func SetImageService(service ImageService) {
	imageServiceInstance = service
}

// UploadFlowerImage checks the upload is a PNG within the size limit and stores it
// under flowers/<id>/<uuid>.png
func (s *S3ImageService) UploadFlowerImage(ctx context.Context, flowerID uint, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, utils.MaxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if err := utils.ValidatePNGContent(content); err != nil {
		return "", err
	}

	key := fmt.Sprintf("flowers/%d/%s.png", flowerID, uuid.NewString())
	if err := s.store.PutObject(ctx, key, "image/png", content); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return key, nil
}

// GetImageURL generates a presigned URL for key; an empty key has no URL
func (s *S3ImageService) GetImageURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	url, err := s.store.PresignGet(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}

	return url, nil
}

// DeleteImage deletes key; an empty key is a no-op
func (s *S3ImageService) DeleteImage(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	if err := s.store.DeleteObject(ctx, key); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	return nil
}
