package local

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/kv"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/signer"
	"github.com/Ramsey-B/clover/pkg/storage"
	"github.com/Ramsey-B/clover/pkg/storage/storagetest"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newBackend(store kv.Store, cfg Config) *Backend {
	objects := NewObjectStore(store, DefaultPrefix, signer.New("test-secret", time.Hour), "http://localhost:8080")
	return New(store, objects, cfg, testLogger())
}

func TestBackendMemory(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return newBackend(kv.NewMemoryStore(), Config{})
	}, storagetest.Options{InsertionOrder: true, InlineComments: true})
}

func TestBackendFile(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		store, err := kv.NewFileStore(t.TempDir())
		require.NoError(t, err)
		return newBackend(store, Config{})
	}, storagetest.Options{InsertionOrder: true, InlineComments: true})
}

func TestConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(kv.NewMemoryStore(), Config{MaxWriteAttempts: 50})

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := backend.Customers().Create(ctx, models.CustomerInput{Name: "Customer"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	customers, err := backend.Customers().List(ctx)
	require.NoError(t, err)
	assert.Len(t, customers, writers)
}

// conflictingStore loses every write race.
type conflictingStore struct {
	kv.Store
	attempts int
}

func (s *conflictingStore) CompareAndSwap(context.Context, string, int64, []byte) (int64, error) {
	s.attempts++
	return 0, kv.ErrVersionConflict
}

func TestWriteConflictsAreSurfaced(t *testing.T) {
	ctx := context.Background()
	store := &conflictingStore{Store: kv.NewMemoryStore()}
	backend := newBackend(store, Config{MaxWriteAttempts: 3})

	_, err := backend.Customers().Create(ctx, models.CustomerInput{Name: "Anita"})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
	assert.Equal(t, 3, store.attempts)
}

func TestUpdateMissingWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	backend := newBackend(store, Config{})

	name := "Ghost"
	_, err := backend.Customers().Update(ctx, "missing", models.CustomerPatch{Name: &name})
	assert.True(t, storage.IsNotFound(err))

	entry, err := store.Get(ctx, DefaultPrefix+"-customers")
	require.NoError(t, err)
	assert.False(t, entry.Exists())
}

func TestCollectionLayout(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	backend := New(store, nil, Config{Prefix: "demo"}, testLogger())

	job, err := backend.ServiceJobs().Create(ctx, models.ServiceJobInput{
		ModelName:    "Creta",
		CustomerName: "Anita",
		ScheduledAt:  time.Now(),
	})
	require.NoError(t, err)
	_, err = backend.ServiceJobs().AddComment(ctx, job.ID, models.CommentInput{Text: "noted", Author: "Kiran"})
	require.NoError(t, err)

	keys, err := store.Keys(ctx, "demo-")
	require.NoError(t, err)
	assert.Equal(t, []string{"demo-serviceJobs"}, keys)

	entry, err := store.Get(ctx, "demo-serviceJobs")
	require.NoError(t, err)
	assert.Contains(t, string(entry.Value), `"modal_name":"Creta"`)
	assert.Contains(t, string(entry.Value), `"text":"noted"`)
	assert.NotContains(t, string(entry.Value), "signed_url")
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	backend := newBackend(store, Config{})

	req, err := backend.Requirements().Create(ctx, models.RequirementInput{CustomerName: "Ravi", Description: "Roof rack"})
	require.NoError(t, err)
	_, err = backend.Attachments().Upload(ctx, models.AttachmentUpload{
		EntityType: models.EntityTypeRequirement,
		EntityID:   req.ID,
		FileName:   "rack.jpg",
		Body:       strings.NewReader("jpeg"),
	})
	require.NoError(t, err)
	_, err = store.CompareAndSwap(ctx, "unrelated", 0, []byte("keep"))
	require.NoError(t, err)

	require.NoError(t, backend.Clear(ctx))

	keys, err := store.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"unrelated"}, keys)

	reqs, err := backend.Requirements().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestObjectStore(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	objects := NewObjectStore(store, DefaultPrefix, signer.New("test-secret", time.Hour), "https://clover.example.com/")
	backend := New(store, objects, Config{}, testLogger())

	t.Run("should serve an uploaded blob through its signed url", func(t *testing.T) {
		attachment, err := backend.Attachments().Upload(ctx, models.AttachmentUpload{
			EntityType:  models.EntityTypeServiceJob,
			EntityID:    "job-1",
			FileName:    "dent photo.JPG",
			ContentType: "image/jpeg",
			Size:        4,
			Body:        strings.NewReader("jpeg"),
		})
		require.NoError(t, err)

		signed, err := url.Parse(attachment.SignedURL)
		require.NoError(t, err)
		assert.Equal(t, "clover.example.com", signed.Host)
		assert.Equal(t, FilesPath+attachment.StoragePath, signed.Path)

		token := signed.Query().Get("token")
		require.NoError(t, objects.Verify(attachment.StoragePath, token))
		assert.ErrorIs(t, objects.Verify("service_job/job-2/other.jpg", token), signer.ErrInvalidToken)

		body, contentType, err := objects.Open(ctx, attachment.StoragePath)
		require.NoError(t, err)
		defer body.Close()
		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "jpeg", string(data))
		assert.Equal(t, "image/jpeg", contentType)
	})

	t.Run("should remove the blob with its attachment", func(t *testing.T) {
		attachment, err := backend.Attachments().Upload(ctx, models.AttachmentUpload{
			EntityType: models.EntityTypeRequirement,
			EntityID:   "req-1",
			FileName:   "spec.pdf",
			Body:       strings.NewReader("pdf"),
		})
		require.NoError(t, err)
		assert.Equal(t, "application/octet-stream", attachment.FileType)

		require.NoError(t, backend.Attachments().Delete(ctx, attachment.ID))

		_, _, err = objects.Open(ctx, attachment.StoragePath)
		assert.True(t, storage.IsNotFound(err))
	})
}

// failingCollections accepts blob writes but fails every collection write.
type failingCollections struct {
	kv.Store
}

func (s *failingCollections) CompareAndSwap(ctx context.Context, key string, version int64, value []byte) (int64, error) {
	if strings.Contains(key, "-objects/") {
		return s.Store.CompareAndSwap(ctx, key, version, value)
	}
	return 0, assert.AnError
}

func TestUploadRemovesBlobWhenMetadataFails(t *testing.T) {
	ctx := context.Background()
	store := &failingCollections{Store: kv.NewMemoryStore()}
	backend := newBackend(store, Config{})

	_, err := backend.Attachments().Upload(ctx, models.AttachmentUpload{
		EntityType: models.EntityTypeRequirement,
		EntityID:   "req-1",
		FileName:   "spec.pdf",
		Body:       strings.NewReader("pdf"),
	})
	require.ErrorIs(t, err, assert.AnError)

	keys, err := store.Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
