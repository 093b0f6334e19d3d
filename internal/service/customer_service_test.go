package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/clientes/internal/db"
	"github.com/vbonduro/clientes/internal/domain"
	"github.com/vbonduro/clientes/internal/photostore"
	"github.com/vbonduro/clientes/internal/store"
)

// stubPhotoStore is a minimal in-memory photostore.PhotoStore for tests.
type stubPhotoStore struct {
	mu        sync.Mutex
	saved     map[string][]byte
	next      int
	storeErr  error
	deleteErr error
	deleted   []string
}

func newStubPhotoStore() *stubPhotoStore {
	return &stubPhotoStore{saved: make(map[string][]byte)}
}

func (s *stubPhotoStore) Store(_ context.Context, originalName string, r io.Reader) (string, error) {
	if s.storeErr != nil {
		return "", s.storeErr
	}
	data, _ := io.ReadAll(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	name := fmt.Sprintf("%d_%s", s.next, photostore.SanitizeName(originalName))
	s.saved[name] = data
	return name, nil
}

func (s *stubPhotoStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, name)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.saved, name)
	return nil
}

func (s *stubPhotoStore) Load(_ context.Context, name string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.saved[name]
	if !ok {
		return nil, photostore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *stubPhotoStore) has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.saved[name]
	return ok
}

type countingRecorder struct {
	stored, deleted int
	bytes           int64
}

func (r *countingRecorder) RecordRequest(string, string, int, time.Duration) {}
func (r *countingRecorder) RecordPhotoStored(n int64)                         { r.stored++; r.bytes += n }
func (r *countingRecorder) RecordPhotoDeleted()                               { r.deleted++ }

type testEnv struct {
	svc     *CustomerService
	photos  *stubPhotoStore
	metrics *countingRecorder
}

func newTestService(t *testing.T) *testEnv {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	photos := newStubPhotoStore()
	rec := &countingRecorder{}
	return &testEnv{
		svc:     NewCustomerService(store.NewCustomerStore(d), photos, rec, slog.Default()),
		photos:  photos,
		metrics: rec,
	}
}

func newCustomer(name, email string) *domain.Customer {
	return &domain.Customer{
		FirstName: name,
		LastName:  "Guzman",
		Email:     email,
		CreatedAt: domain.NewDate(time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC)),
	}
}

func TestCreateIgnoresIDAndDefaultsDate(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	in := newCustomer("Andres", "andres@correo.com")
	in.ID = 99
	in.CreatedAt = domain.Date{}

	created, err := env.svc.Create(ctx, in)
	require.NoError(t, err)
	assert.NotEqual(t, int64(99), created.ID)
	assert.Equal(t, domain.Today(), created.CreatedAt)

	got, err := env.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Andres", got.FirstName)
}

func TestCreateValidationFailureInsertsNothing(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, newCustomer("Al", "no-es-correo"))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 2)

	all, err := env.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGetMissing(t *testing.T) {
	env := newTestService(t)

	_, err := env.svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestUpdate(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, newCustomer("Andres", "andres@correo.com"))
	require.NoError(t, err)
	_, err = env.svc.UploadPhoto(ctx, created.ID, "perfil.jpg", []byte("jpeg"))
	require.NoError(t, err)

	in := newCustomer("Mister", "mister@correo.com")
	in.LastName = "Doe"
	in.CreatedAt = domain.NewDate(time.Date(2020, 5, 6, 0, 0, 0, 0, time.UTC))

	updated, err := env.svc.Update(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Mister", updated.FirstName)
	assert.Equal(t, "Doe", updated.LastName)
	assert.Equal(t, "mister@correo.com", updated.Email)
	assert.Equal(t, "2020-05-06", updated.CreatedAt.String())

	got, err := env.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.CreatedAt, got.CreatedAt)
	assert.Equal(t, "1_perfil.jpg", got.PhotoName(), "photo survives an update")
}

func TestUpdateMissing(t *testing.T) {
	env := newTestService(t)

	_, err := env.svc.Update(context.Background(), 42, newCustomer("Andres", "andres@correo.com"))
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestUpdateValidatesBeforeLookup(t *testing.T) {
	env := newTestService(t)

	_, err := env.svc.Update(context.Background(), 42, &domain.Customer{})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.NotErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestListPage(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := env.svc.Create(ctx, newCustomer(fmt.Sprintf("Cliente%d", i), fmt.Sprintf("c%d@correo.com", i)))
		require.NoError(t, err)
	}

	sizes := []int{4, 4, 2}
	for page, want := range sizes {
		p, err := env.svc.ListPage(ctx, page)
		require.NoError(t, err)
		assert.Len(t, p.Content, want)
		assert.Equal(t, int64(10), p.TotalElements)
		assert.Equal(t, 3, p.TotalPages)
	}

	p, err := env.svc.ListPage(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, p.Content)
}

func TestDeleteRemovesPhoto(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, newCustomer("Andres", "andres@correo.com"))
	require.NoError(t, err)
	withPhoto, err := env.svc.UploadPhoto(ctx, created.ID, "perfil.jpg", []byte("jpeg"))
	require.NoError(t, err)
	photo := withPhoto.PhotoName()
	require.True(t, env.photos.has(photo))

	require.NoError(t, env.svc.Delete(ctx, created.ID))

	assert.False(t, env.photos.has(photo))
	assert.Equal(t, 1, env.metrics.deleted)
	_, err = env.svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestDeleteMissingIsNoop(t *testing.T) {
	env := newTestService(t)

	assert.NoError(t, env.svc.Delete(context.Background(), 42))
	assert.Empty(t, env.photos.deleted)
}

func TestDeletePhotoFailureStillDeletesCustomer(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, newCustomer("Andres", "andres@correo.com"))
	require.NoError(t, err)
	_, err = env.svc.UploadPhoto(ctx, created.ID, "perfil.jpg", []byte("jpeg"))
	require.NoError(t, err)

	env.photos.deleteErr = errors.New("permission denied")
	require.NoError(t, env.svc.Delete(ctx, created.ID))

	_, err = env.svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
	assert.Equal(t, 0, env.metrics.deleted)
}

func TestUploadPhotoReplacesOld(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, newCustomer("Andres", "andres@correo.com"))
	require.NoError(t, err)

	first, err := env.svc.UploadPhoto(ctx, created.ID, "uno.jpg", []byte("1"))
	require.NoError(t, err)
	second, err := env.svc.UploadPhoto(ctx, created.ID, "dos.jpg", []byte("22"))
	require.NoError(t, err)

	assert.Equal(t, "2_dos.jpg", second.PhotoName())
	assert.False(t, env.photos.has(first.PhotoName()))
	assert.True(t, env.photos.has(second.PhotoName()))
	assert.Equal(t, 2, env.metrics.stored)
	assert.Equal(t, int64(3), env.metrics.bytes)

	rc, err := env.svc.LoadPhoto(ctx, second.PhotoName())
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("22"), data)
}

func TestUploadPhotoEmptyData(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, newCustomer("Andres", "andres@correo.com"))
	require.NoError(t, err)

	c, err := env.svc.UploadPhoto(ctx, created.ID, "vacia.jpg", nil)
	require.NoError(t, err)
	assert.Nil(t, c)

	got, err := env.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Photo)
	assert.Equal(t, 0, env.metrics.stored)
}

func TestUploadPhotoUnknownCustomer(t *testing.T) {
	env := newTestService(t)

	_, err := env.svc.UploadPhoto(context.Background(), 42, "perfil.jpg", []byte("jpeg"))
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
	assert.Empty(t, env.photos.saved)
}

func TestUploadPhotoStoreFailure(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, newCustomer("Andres", "andres@correo.com"))
	require.NoError(t, err)

	env.photos.storeErr = errors.New("disk full")
	_, err = env.svc.UploadPhoto(ctx, created.ID, "perfil.jpg", []byte("jpeg"))

	var perr *domain.PhotoIOError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "failed to store photo: disk full", perr.Detail())

	got, err := env.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Photo)
}

// failingRepo fails every call with a store error.
type failingRepo struct{ err error }

func (r failingRepo) FindAll(context.Context) ([]*domain.Customer, error) { return nil, r.err }
func (r failingRepo) FindAllPaged(context.Context, int, int) (*domain.Page[*domain.Customer], error) {
	return nil, r.err
}
func (r failingRepo) FindByID(context.Context, int64) (*domain.Customer, error) { return nil, r.err }
func (r failingRepo) Save(context.Context, *domain.Customer) (*domain.Customer, error) {
	return nil, r.err
}
func (r failingRepo) DeleteByID(context.Context, int64) error { return r.err }

func TestStoreErrorsPropagate(t *testing.T) {
	storeErr := &domain.StoreError{Op: "failed to get customer", Err: errors.New("database is locked")}
	svc := NewCustomerService(failingRepo{err: storeErr}, newStubPhotoStore(), nil, slog.Default())
	ctx := context.Background()

	_, err := svc.List(ctx)
	assert.ErrorIs(t, err, storeErr)
	_, err = svc.ListPage(ctx, 0)
	assert.ErrorIs(t, err, storeErr)
	_, err = svc.Get(ctx, 1)
	assert.ErrorIs(t, err, storeErr)
	_, err = svc.Create(ctx, newCustomer("Andres", "andres@correo.com"))
	assert.ErrorIs(t, err, storeErr)
	_, err = svc.Update(ctx, 1, newCustomer("Andres", "andres@correo.com"))
	assert.ErrorIs(t, err, storeErr)
	assert.ErrorIs(t, svc.Delete(ctx, 1), storeErr)
	_, err = svc.UploadPhoto(ctx, 1, "perfil.jpg", []byte("jpeg"))
	assert.ErrorIs(t, err, storeErr)
}
