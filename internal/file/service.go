package file

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/devanup/DocBox/internal/saga"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

const (
	defaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	// totalCapacityBytes is the fixed per-user storage allowance reported
	// by the usage aggregator.
	totalCapacityBytes = 2 * 1024 * 1024 * 1024
)

type metadataStore interface {
	Create(ctx context.Context, meta Metadata) (Metadata, error)
	List(ctx context.Context, accessor Accessor, query ListQuery) ([]Metadata, error)
	Get(ctx context.Context, accessor Accessor, fileID uuid.UUID) (Metadata, error)
	Rename(ctx context.Context, ownerID, fileID uuid.UUID, newName string) (Metadata, error)
	ReplaceUsers(ctx context.Context, ownerID, fileID uuid.UUID, emails []string) (Metadata, error)
	Delete(ctx context.Context, ownerID, fileID uuid.UUID) (Metadata, error)
	ListOwned(ctx context.Context, ownerID uuid.UUID) ([]Metadata, error)
}

type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// Service manages the file metadata and blob lifecycle.
type Service struct {
	repo         metadataStore
	objectStore  objectStore
	objectBucket string
	maxFileSize  int64
}

// NewService constructs a file service.
func NewService(repo metadataStore, store objectStore, objectBucket string) *Service {
	return &Service{
		repo:         repo,
		objectStore:  store,
		objectBucket: objectBucket,
		maxFileSize:  defaultMaxFileSize,
	}
}

// Upload stores the blob first and the metadata document second. If the
// metadata write fails, the blob is removed again before the error
// propagates, so a metadata document never references a missing object and
// no unreferenced document is left behind. Nothing is retried.
func (s *Service) Upload(ctx context.Context, ownerID, accountID uuid.UUID, fileHeader *multipart.FileHeader) (Metadata, error) {
	if fileHeader == nil {
		return Metadata{}, fmt.Errorf("missing file payload")
	}
	if fileHeader.Size > s.maxFileSize {
		return Metadata{}, ErrFileTooLarge
	}

	filename := sanitizeFilename(fileHeader.Filename)
	fileType, extension := Classify(filename)

	source, err := fileHeader.Open()
	if err != nil {
		return Metadata{}, fmt.Errorf("open upload file: %w", err)
	}
	defer source.Close()

	fileID := uuid.New()
	meta := Metadata{
		ID:        fileID,
		Name:      filename,
		Extension: extension,
		Type:      fileType,
		SizeBytes: fileHeader.Size,
		URL:       downloadURL(fileID),
		OwnerID:   ownerID,
		AccountID: accountID,
		Users:     []string{},
		ObjectID:  uuid.NewString(),
	}
	objectName := meta.ObjectKey()

	var stored Metadata
	steps := []saga.Step{
		{
			Name: "store object",
			Run: func(ctx context.Context) error {
				info, err := s.objectStore.PutObject(ctx, s.objectBucket, objectName, source, fileHeader.Size, minio.PutObjectOptions{
					ContentType: detectContentType(fileHeader),
				})
				if err != nil {
					return err
				}
				if info.Size > 0 {
					meta.SizeBytes = info.Size
				}
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.objectStore.RemoveObject(ctx, s.objectBucket, objectName, minio.RemoveObjectOptions{})
			},
		},
		{
			Name: "store metadata",
			Run: func(ctx context.Context) error {
				var err error
				stored, err = s.repo.Create(ctx, meta)
				return err
			},
		},
	}

	if err := saga.Execute(ctx, steps); err != nil {
		return Metadata{}, err
	}
	return stored, nil
}

// List returns every file the caller owns or that is shared with them,
// narrowed by the optional filters.
func (s *Service) List(ctx context.Context, accessor Accessor, query ListQuery) ([]Metadata, error) {
	for _, t := range query.Types {
		if !t.Valid() {
			return nil, ErrInvalidType
		}
	}
	return s.repo.List(ctx, accessor, query)
}

// Get fetches a single file honoring the owner-or-shared access rule.
func (s *Service) Get(ctx context.Context, accessor Accessor, fileID uuid.UUID) (Metadata, error) {
	return s.repo.Get(ctx, accessor, fileID)
}

// Download retrieves metadata and an object reader for streaming.
func (s *Service) Download(ctx context.Context, accessor Accessor, fileID uuid.UUID) (Metadata, io.ReadCloser, error) {
	meta, err := s.repo.Get(ctx, accessor, fileID)
	if err != nil {
		return Metadata{}, nil, err
	}

	object, err := s.objectStore.GetObject(ctx, s.objectBucket, meta.ObjectKey(), minio.GetObjectOptions{})
	if err != nil {
		return Metadata{}, nil, fmt.Errorf("fetch object: %w", err)
	}
	return meta, object, nil
}

// Rename updates only the display name, recombining the new base name with
// the extension recorded at upload time. The blob and the extension field
// are untouched.
func (s *Service) Rename(ctx context.Context, ownerID, fileID uuid.UUID, newBaseName string) (Metadata, error) {
	newBaseName = strings.TrimSpace(newBaseName)
	if newBaseName == "" {
		return Metadata{}, fmt.Errorf("new name required")
	}

	meta, err := s.repo.Get(ctx, Accessor{UserID: ownerID}, fileID)
	if err != nil {
		return Metadata{}, err
	}

	newName := newBaseName
	if meta.Extension != "" {
		newName = newBaseName + "." + meta.Extension
	}
	return s.repo.Rename(ctx, ownerID, fileID, newName)
}

// Share replaces the entire share list with the provided emails. It is a
// replace, not a merge: callers supply the full desired list.
func (s *Service) Share(ctx context.Context, ownerID, fileID uuid.UUID, emails []string) (Metadata, error) {
	cleaned := make([]string, 0, len(emails))
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			cleaned = append(cleaned, email)
		}
	}
	return s.repo.ReplaceUsers(ctx, ownerID, fileID, cleaned)
}

// Delete removes the metadata document first; only when that succeeds is the
// blob removed. A failure of the second step leaves an orphaned blob with no
// referencing document, which is accepted rather than recovered.
func (s *Service) Delete(ctx context.Context, ownerID, fileID uuid.UUID) error {
	meta, err := s.repo.Delete(ctx, ownerID, fileID)
	if err != nil {
		return err
	}

	if err := s.objectStore.RemoveObject(ctx, s.objectBucket, meta.ObjectKey(), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// CategoryUsage sums one content category.
type CategoryUsage struct {
	SizeBytes  int64      `json:"size"`
	LatestDate *time.Time `json:"latest_date,omitempty"`
}

// Usage reports storage consumption per category plus overall totals.
type Usage struct {
	Document CategoryUsage `json:"document"`
	Image    CategoryUsage `json:"image"`
	Video    CategoryUsage `json:"video"`
	Audio    CategoryUsage `json:"audio"`
	Other    CategoryUsage `json:"other"`
	Used     int64         `json:"used"`
	All      int64         `json:"all"`
}

// TotalSpaceUsed folds the caller's owned files (shared files excluded) into
// per-category sizes and most-recent update stamps. Recomputed per request.
func (s *Service) TotalSpaceUsed(ctx context.Context, ownerID uuid.UUID) (Usage, error) {
	files, err := s.repo.ListOwned(ctx, ownerID)
	if err != nil {
		return Usage{}, err
	}

	usage := Usage{All: totalCapacityBytes}
	for _, f := range files {
		category := usage.category(f.Type)
		category.SizeBytes += f.SizeBytes
		usage.Used += f.SizeBytes

		updated := f.UpdatedAt
		if category.LatestDate == nil || updated.After(*category.LatestDate) {
			category.LatestDate = &updated
		}
	}
	return usage, nil
}

func (u *Usage) category(t Type) *CategoryUsage {
	switch t {
	case TypeDocument:
		return &u.Document
	case TypeImage:
		return &u.Image
	case TypeVideo:
		return &u.Video
	case TypeAudio:
		return &u.Audio
	default:
		return &u.Other
	}
}

func downloadURL(fileID uuid.UUID) string {
	return fmt.Sprintf("/v1/files/%s/download", fileID.String())
}

func detectContentType(fileHeader *multipart.FileHeader) string {
	if contentType := fileHeader.Header.Get("Content-Type"); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "upload"
	}
	return name
}
