package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"medcamp-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const avatarURLExpiry = 5 * time.Minute

var avatarExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// AvatarUpload is handed to the client, which PUTs the image to UploadURL.
type AvatarUpload struct {
	UploadURL string `json:"upload_url"`
	AvatarURL string `json:"avatar_url"`
	ExpiresIn int    `json:"expires_in"`
}

// AvatarService issues presigned S3 uploads for profile pictures.
type AvatarService struct {
	presigner presigner
	profiles  ProfileStore
	bucket    string
	baseURL   string
}

// NewAvatarService creates a new avatar service
func NewAvatarService(profiles ProfileStore, region, bucket, accessKey, secretKey, endpoint string) (*AvatarService, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	if endpoint != "" {
		baseURL = strings.TrimRight(endpoint, "/") + "/" + bucket
	}

	return &AvatarService{
		presigner: s3.NewPresignClient(client),
		profiles:  profiles,
		bucket:    bucket,
		baseURL:   baseURL,
	}, nil
}

// UploadURL presigns a PUT for a new avatar and points the caller's profile at
// the resulting object.
func (s *AvatarService) UploadURL(ctx context.Context, identity *models.Identity, contentType string) (*AvatarUpload, error) {
	if identity == nil {
		return nil, models.ErrAuthRequired
	}
	ext, ok := avatarExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported content type %q", models.ErrValidation, contentType)
	}

	key := fmt.Sprintf("avatars/%s/%s.%s", identity.UserID, uuid.New().String(), ext)
	request, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = avatarURLExpiry
	})
	if err != nil {
		return nil, models.Remote("presign avatar upload", err)
	}

	avatarURL := s.baseURL + "/" + key
	if err := s.profiles.UpdateAvatarURL(ctx, identity.UserID, avatarURL); err != nil {
		return nil, models.Remote("update avatar url", err)
	}

	log.Info().Str("user_id", identity.UserID).Str("key", key).Msg("Avatar upload presigned")

	return &AvatarUpload{
		UploadURL: request.URL,
		AvatarURL: avatarURL,
		ExpiresIn: int(avatarURLExpiry.Seconds()),
	}, nil
}
