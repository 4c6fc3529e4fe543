package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"foros/internal/config"
	"foros/internal/models"
	"foros/internal/repository"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	DefaultAvatarUploadDir       = "/tmp/foros/uploads/avatars"
	DefaultAvatarMaxUploadSizeMB = 5
	AvatarSize                   = 256
	AvatarWebPQuality            = 80
	AvatarURLPrefix              = "/media/avatars/"
)

type UploadAvatarInput struct {
	UserID  uint
	Content []byte
}

// AvatarService turns uploaded images into square WebP profile pictures.
type AvatarService struct {
	userRepo           repository.UserRepository
	uploadDir          string
	maxUploadSizeBytes int64
}

func NewAvatarService(userRepo repository.UserRepository, cfg *config.Config) *AvatarService {
	uploadDir := DefaultAvatarUploadDir
	maxUploadSizeMB := DefaultAvatarMaxUploadSizeMB
	if cfg != nil {
		if cfg.AvatarUploadDir != "" {
			uploadDir = cfg.AvatarUploadDir
		}
		if cfg.AvatarMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.AvatarMaxUploadSizeMB
		}
	}
	return &AvatarService{
		userRepo:           userRepo,
		uploadDir:          uploadDir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// UploadDir is where encoded avatars are written and served from.
func (s *AvatarService) UploadDir() string { return s.uploadDir }

// Upload validates, crops, scales and stores the image, then points the
// user's avatar at it. The previous avatar file is removed.
func (s *AvatarService) Upload(ctx context.Context, in UploadAvatarInput) (*models.User, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(in.Content)) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	encoded, err := encodeWebP(squareThumbnail(decoded, AvatarSize), AvatarWebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	name := uuid.NewString() + ".webp"
	path := filepath.Join(s.uploadDir, name)
	if err := writeBytesToFile(path, encoded); err != nil {
		return nil, models.NewInternalError(err)
	}

	url := AvatarURLPrefix + name
	if err := s.userRepo.UpdateAvatar(ctx, in.UserID, url); err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	s.removeLocalAvatar(user.Avatar)

	user.Avatar = url
	return user, nil
}

func (s *AvatarService) removeLocalAvatar(url string) {
	name, ok := strings.CutPrefix(url, AvatarURLPrefix)
	if !ok || name == "" || strings.ContainsAny(name, `/\`) {
		return
	}
	_ = os.Remove(filepath.Join(s.uploadDir, name))
}

// squareThumbnail centre-crops src to a square and scales it to size×size.
func squareThumbnail(src image.Image, size int) image.Image {
	b := src.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	crop := image.Rect(x0, y0, x0+side, y0+side)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, xdraw.Src, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
