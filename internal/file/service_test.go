package file

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

func TestUploadStoresObjectThenMetadata(t *testing.T) {
	repo := newFakeRepo()
	objectStore := &fakeObjectStore{}
	service := NewService(repo, objectStore, "docbox")

	ownerID := uuid.New()
	accountID := uuid.New()
	fileHeader := buildFileHeader(t, "file", "notes.txt", "text/plain", []byte("hello world"))

	meta, err := service.Upload(context.Background(), ownerID, accountID, fileHeader)
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	if meta.Name != "notes.txt" {
		t.Fatalf("unexpected name: %s", meta.Name)
	}
	if meta.Type != TypeDocument || meta.Extension != "txt" {
		t.Fatalf("unexpected classification: %s/%s", meta.Type, meta.Extension)
	}
	if meta.OwnerID != ownerID || meta.AccountID != accountID {
		t.Fatalf("ownership not recorded")
	}
	if len(meta.Users) != 0 {
		t.Fatalf("new file must start unshared, got %v", meta.Users)
	}
	if !strings.Contains(meta.URL, meta.ID.String()) {
		t.Fatalf("url must reference the file id: %s", meta.URL)
	}
	if !objectStore.putCalled {
		t.Fatalf("expected PutObject to be called")
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected metadata stored, got %d", len(repo.records))
	}
}

func TestUploadRemovesObjectWhenMetadataWriteFails(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New("metadata write refused")
	objectStore := &fakeObjectStore{}
	service := NewService(repo, objectStore, "docbox")

	fileHeader := buildFileHeader(t, "file", "photo.png", "image/png", []byte("pixels"))

	_, err := service.Upload(context.Background(), uuid.New(), uuid.New(), fileHeader)
	if !errors.Is(err, repo.createErr) {
		t.Fatalf("expected metadata error to propagate, got %v", err)
	}

	if !objectStore.putCalled {
		t.Fatalf("expected PutObject before the failure")
	}
	if objectStore.removeCount != 1 {
		t.Fatalf("expected one compensating RemoveObject, got %d", objectStore.removeCount)
	}
	if len(repo.records) != 0 {
		t.Fatalf("no metadata may remain, got %d", len(repo.records))
	}
}

func TestUploadObjectFailureWritesNothing(t *testing.T) {
	repo := newFakeRepo()
	objectStore := &fakeObjectStore{putErr: errors.New("storage down")}
	service := NewService(repo, objectStore, "docbox")

	fileHeader := buildFileHeader(t, "file", "photo.png", "image/png", []byte("pixels"))

	_, err := service.Upload(context.Background(), uuid.New(), uuid.New(), fileHeader)
	if !errors.Is(err, objectStore.putErr) {
		t.Fatalf("expected storage error to propagate, got %v", err)
	}
	if objectStore.removeCount != 0 {
		t.Fatalf("nothing to compensate, got %d removes", objectStore.removeCount)
	}
	if len(repo.records) != 0 {
		t.Fatalf("no metadata may be written, got %d", len(repo.records))
	}
}

func TestRenameUpdatesOnlyName(t *testing.T) {
	repo := newFakeRepo()
	objectStore := &fakeObjectStore{}
	service := NewService(repo, objectStore, "docbox")

	ownerID := uuid.New()
	fileHeader := buildFileHeader(t, "file", "report.pdf", "application/pdf", []byte("content"))
	meta, err := service.Upload(context.Background(), ownerID, uuid.New(), fileHeader)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	renamed, err := service.Rename(context.Background(), ownerID, meta.ID, "quarterly")
	if err != nil {
		t.Fatalf("Rename returned error: %v", err)
	}

	if renamed.Name != "quarterly.pdf" {
		t.Fatalf("expected quarterly.pdf, got %s", renamed.Name)
	}
	if renamed.Extension != "pdf" {
		t.Fatalf("extension must not be recomputed, got %s", renamed.Extension)
	}
	if renamed.ObjectID != meta.ObjectID {
		t.Fatalf("blob must be untouched")
	}

	if _, err := service.Rename(context.Background(), ownerID, uuid.New(), "ghost"); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound for missing file, got %v", err)
	}
}

func TestShareReplacesUsersList(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, &fakeObjectStore{}, "docbox")

	ownerID := uuid.New()
	fileHeader := buildFileHeader(t, "file", "report.pdf", "application/pdf", []byte("content"))
	meta, _ := service.Upload(context.Background(), ownerID, uuid.New(), fileHeader)

	if _, err := service.Share(context.Background(), ownerID, meta.ID, []string{"a@x.com"}); err != nil {
		t.Fatalf("first Share: %v", err)
	}
	updated, err := service.Share(context.Background(), ownerID, meta.ID, []string{"b@x.com"})
	if err != nil {
		t.Fatalf("second Share: %v", err)
	}

	if len(updated.Users) != 1 || updated.Users[0] != "b@x.com" {
		t.Fatalf("share must replace, not merge: %v", updated.Users)
	}

	// an empty list is a valid desired state: nobody keeps access
	cleared, err := service.Share(context.Background(), ownerID, meta.ID, []string{})
	if err != nil {
		t.Fatalf("clearing Share: %v", err)
	}
	if len(cleared.Users) != 0 {
		t.Fatalf("empty share list must clear access, got %v", cleared.Users)
	}
}

func TestDeleteRemovesMetadataBeforeObject(t *testing.T) {
	repo := newFakeRepo()
	objectStore := &fakeObjectStore{}
	service := NewService(repo, objectStore, "docbox")

	ownerID := uuid.New()
	fileHeader := buildFileHeader(t, "file", "data.bin", "application/octet-stream", []byte("payload"))
	meta, _ := service.Upload(context.Background(), ownerID, uuid.New(), fileHeader)

	if err := service.Delete(context.Background(), ownerID, meta.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if objectStore.removeCount != 1 {
		t.Fatalf("expected RemoveObject called once, got %d", objectStore.removeCount)
	}
	if len(repo.records) != 0 {
		t.Fatalf("expected metadata removed, remaining %d", len(repo.records))
	}
}

func TestDeleteSkipsObjectWhenMetadataDeleteFails(t *testing.T) {
	repo := newFakeRepo()
	repo.deleteErr = errors.New("metadata delete refused")
	objectStore := &fakeObjectStore{}
	service := NewService(repo, objectStore, "docbox")

	ownerID := uuid.New()
	fileHeader := buildFileHeader(t, "file", "data.bin", "application/octet-stream", []byte("payload"))
	meta, _ := service.Upload(context.Background(), ownerID, uuid.New(), fileHeader)
	objectStore.removeCount = 0

	if err := service.Delete(context.Background(), ownerID, meta.ID); !errors.Is(err, repo.deleteErr) {
		t.Fatalf("expected metadata error to propagate, got %v", err)
	}
	if objectStore.removeCount != 0 {
		t.Fatalf("blob delete must not be attempted, got %d", objectStore.removeCount)
	}
}

func TestTotalSpaceUsedAggregatesByCategory(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, &fakeObjectStore{}, "docbox")

	ownerID := uuid.New()
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	sizes := []int64{10, 20, 30}
	var latest time.Time
	for i, size := range sizes {
		updated := base.Add(time.Duration(i) * time.Hour)
		latest = updated
		repo.insert(Metadata{
			ID:        uuid.New(),
			Name:      "img.png",
			Type:      TypeImage,
			SizeBytes: size,
			OwnerID:   ownerID,
			UpdatedAt: updated,
		})
	}
	repo.insert(Metadata{
		ID:        uuid.New(),
		Name:      "doc.pdf",
		Type:      TypeDocument,
		SizeBytes: 5,
		OwnerID:   ownerID,
		UpdatedAt: base,
	})
	// other users' files never count
	repo.insert(Metadata{
		ID:        uuid.New(),
		Name:      "foreign.pdf",
		Type:      TypeDocument,
		SizeBytes: 1000,
		OwnerID:   uuid.New(),
		UpdatedAt: base,
	})

	usage, err := service.TotalSpaceUsed(context.Background(), ownerID)
	if err != nil {
		t.Fatalf("TotalSpaceUsed returned error: %v", err)
	}

	if usage.Image.SizeBytes != 60 {
		t.Fatalf("expected image size 60, got %d", usage.Image.SizeBytes)
	}
	if usage.Used != 65 {
		t.Fatalf("expected used 65, got %d", usage.Used)
	}
	if usage.All != int64(2*1024*1024*1024) {
		t.Fatalf("unexpected capacity: %d", usage.All)
	}
	if usage.Image.LatestDate == nil || !usage.Image.LatestDate.Equal(latest) {
		t.Fatalf("expected image latest %v, got %v", latest, usage.Image.LatestDate)
	}
	if usage.Video.LatestDate != nil {
		t.Fatalf("empty categories must report no latest date")
	}
}

// --- helpers & fakes ---

func buildFileHeader(t *testing.T, fieldName, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("CreateFormFile error: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(int64(len(content)) + 1024); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}

	return req.MultipartForm.File[fieldName][0]
}

type fakeRepo struct {
	records   map[uuid.UUID]Metadata
	createErr error
	deleteErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[uuid.UUID]Metadata)}
}

func (f *fakeRepo) insert(meta Metadata) {
	f.records[meta.ID] = meta
}

func (f *fakeRepo) Create(ctx context.Context, meta Metadata) (Metadata, error) {
	if f.createErr != nil {
		return Metadata{}, f.createErr
	}
	meta.CreatedAt = time.Now()
	meta.UpdatedAt = meta.CreatedAt
	f.records[meta.ID] = meta
	return meta, nil
}

func (f *fakeRepo) List(ctx context.Context, accessor Accessor, query ListQuery) ([]Metadata, error) {
	var list []Metadata
	for _, m := range f.records {
		if m.OwnerID == accessor.UserID || contains(m.Users, accessor.Email) {
			list = append(list, m)
		}
	}
	return list, nil
}

func (f *fakeRepo) Get(ctx context.Context, accessor Accessor, fileID uuid.UUID) (Metadata, error) {
	meta, ok := f.records[fileID]
	if !ok {
		return Metadata{}, ErrFileNotFound
	}
	if meta.OwnerID != accessor.UserID && !contains(meta.Users, accessor.Email) {
		return Metadata{}, ErrFileNotFound
	}
	return meta, nil
}

func (f *fakeRepo) Rename(ctx context.Context, ownerID, fileID uuid.UUID, newName string) (Metadata, error) {
	meta, ok := f.records[fileID]
	if !ok || meta.OwnerID != ownerID {
		return Metadata{}, ErrFileNotFound
	}
	meta.Name = newName
	meta.UpdatedAt = time.Now()
	f.records[fileID] = meta
	return meta, nil
}

func (f *fakeRepo) ReplaceUsers(ctx context.Context, ownerID, fileID uuid.UUID, emails []string) (Metadata, error) {
	meta, ok := f.records[fileID]
	if !ok || meta.OwnerID != ownerID {
		return Metadata{}, ErrFileNotFound
	}
	meta.Users = emails
	meta.UpdatedAt = time.Now()
	f.records[fileID] = meta
	return meta, nil
}

func (f *fakeRepo) Delete(ctx context.Context, ownerID, fileID uuid.UUID) (Metadata, error) {
	if f.deleteErr != nil {
		return Metadata{}, f.deleteErr
	}
	meta, ok := f.records[fileID]
	if !ok || meta.OwnerID != ownerID {
		return Metadata{}, ErrFileNotFound
	}
	delete(f.records, fileID)
	return meta, nil
}

func (f *fakeRepo) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]Metadata, error) {
	var list []Metadata
	for _, m := range f.records {
		if m.OwnerID == ownerID {
			list = append(list, m)
		}
	}
	return list, nil
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

type fakeObjectStore struct {
	putCalled   bool
	putErr      error
	removeCount int
	reader      io.Reader
}

func (f *fakeObjectStore) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	f.putCalled = true
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	return minio.UploadInfo{Size: int64(len(data))}, nil
}

func (f *fakeObjectStore) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	if f.reader == nil {
		f.reader = bytes.NewReader([]byte{})
	}
	return io.NopCloser(f.reader), nil
}

func (f *fakeObjectStore) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	f.removeCount++
	return nil
}
