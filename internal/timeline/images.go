package timeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/conorfennell/zeitstrahl/internal/domain"
)

// MaxImageSize is the largest accepted image upload.
const MaxImageSize = 10 << 20

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Image owners.
const (
	ImageEvent  = "event"
	ImagePerson = "person"
)

// SetImage stores an uploaded image for an event or a person in the media
// directory and records its file name. The previous image is removed.
func (s *Service) SetImage(ctx context.Context, owner, id, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExtensions[ext] {
		return "", fmt.Errorf("%w: unsupported image type %q", domain.ErrInvalidArgument, ext)
	}

	var (
		previous string
		set      func(ctx context.Context, id, image string) error
	)
	switch owner {
	case ImageEvent:
		ev, err := s.db.GetEvent(ctx, id)
		if err != nil {
			return "", err
		}
		previous, set = ev.Image, s.db.SetEventImage
	case ImagePerson:
		p, err := s.db.GetPerson(ctx, id)
		if err != nil {
			return "", err
		}
		previous, set = p.Image, s.db.SetPersonImage
	default:
		return "", fmt.Errorf("%w: unknown image owner %q", domain.ErrInvalidArgument, owner)
	}

	if err := os.MkdirAll(s.mediaDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	name := owner + "-" + uuid.NewString() + ext
	path := filepath.Join(s.mediaDir, name)
	if err := writeLimited(path, r, MaxImageSize); err != nil {
		return "", err
	}
	if err := set(ctx, id, name); err != nil {
		os.Remove(path)
		return "", err
	}

	if previous != "" {
		if err := os.Remove(filepath.Join(s.mediaDir, filepath.Base(previous))); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("Failed to remove previous image", "file", previous, "error", err)
		}
	}
	s.log.Info("Image stored", "owner", owner, "id", id, "file", name)
	return name, nil
}

func writeLimited(path string, r io.Reader, limit int64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > limit {
		err = fmt.Errorf("%w: image larger than %d bytes", domain.ErrInvalidArgument, limit)
	}
	if err != nil {
		os.Remove(path)
		return err
	}
	return nil
}
