package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"

	"github.com/vbonduro/clientes/internal/domain"
	"github.com/vbonduro/clientes/internal/metrics"
	"github.com/vbonduro/clientes/internal/photostore"
)

// PageSize is the fixed number of customers per page.
const PageSize = 4

// customerRepository is the subset of store.CustomerStore that CustomerService requires.
type customerRepository interface {
	FindAll(ctx context.Context) ([]*domain.Customer, error)
	FindAllPaged(ctx context.Context, pageIndex, pageSize int) (*domain.Page[*domain.Customer], error)
	FindByID(ctx context.Context, id int64) (*domain.Customer, error)
	Save(ctx context.Context, c *domain.Customer) (*domain.Customer, error)
	DeleteByID(ctx context.Context, id int64) error
}

type CustomerService struct {
	customers customerRepository
	photos    photostore.PhotoStore
	metrics   metrics.Recorder
	logger    *slog.Logger
}

func NewCustomerService(
	customers customerRepository,
	photos photostore.PhotoStore,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *CustomerService {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &CustomerService{
		customers: customers,
		photos:    photos,
		metrics:   recorder,
		logger:    logger,
	}
}

func (s *CustomerService) List(ctx context.Context) ([]*domain.Customer, error) {
	return s.customers.FindAll(ctx)
}

func (s *CustomerService) ListPage(ctx context.Context, page int) (*domain.Page[*domain.Customer], error) {
	return s.customers.FindAllPaged(ctx, page, PageSize)
}

func (s *CustomerService) Get(ctx context.Context, id int64) (*domain.Customer, error) {
	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrCustomerNotFound
	}
	return c, nil
}

// Create always inserts a new row; any id in the input is ignored. A missing
// creation date defaults to today before validation runs.
func (s *CustomerService) Create(ctx context.Context, in *domain.Customer) (*domain.Customer, error) {
	c := *in
	c.ID = 0
	if c.CreatedAt.IsZero() {
		c.CreatedAt = domain.Today()
	}
	if err := domain.ValidateCustomer(&c); err != nil {
		return nil, err
	}

	saved, err := s.customers.Save(ctx, &c)
	if err != nil {
		return nil, err
	}
	s.logger.Info("customer created", "id", saved.ID)
	return saved, nil
}

// Update overwrites nombre, apellido, email and createAt of an existing
// customer. The stored photo is left untouched.
func (s *CustomerService) Update(ctx context.Context, id int64, in *domain.Customer) (*domain.Customer, error) {
	if err := domain.ValidateCustomer(in); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	current.FirstName = in.FirstName
	current.LastName = in.LastName
	current.Email = in.Email
	current.CreatedAt = in.CreatedAt

	updated, err := s.customers.Save(ctx, current)
	if err != nil {
		return nil, err
	}
	s.logger.Info("customer updated", "id", id)
	return updated, nil
}

// Delete removes the customer and its photo. Deleting an unknown id succeeds,
// and a photo that cannot be removed only gets logged.
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if c != nil {
		s.deletePhoto(ctx, c.PhotoName())
	}

	if err := s.customers.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.logger.Info("customer deleted", "id", id, "existed", c != nil)
	return nil
}

// UploadPhoto stores data as the customer's new photo and discards the old one.
// Empty data is not an error: it returns (nil, nil) and changes nothing.
//
// There is no rollback: if saving the customer fails after the old photo was
// removed, the customer keeps pointing at the removed name.
func (s *CustomerService) UploadPhoto(ctx context.Context, id int64, originalName string, data []byte) (*domain.Customer, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	s.logger.Info("upload photo started", "id", id, "filename", originalName, "bytes", len(data))

	name, err := s.photos.Store(ctx, originalName, bytes.NewReader(data))
	if err != nil {
		return nil, &domain.PhotoIOError{Op: "failed to store photo", Err: err}
	}
	s.metrics.RecordPhotoStored(int64(len(data)))

	s.deletePhoto(ctx, c.PhotoName())
	c.SetPhoto(name)

	saved, err := s.customers.Save(ctx, c)
	if err != nil {
		return nil, err
	}
	s.logger.Info("upload photo complete", "id", id, "photo", name)
	return saved, nil
}

func (s *CustomerService) LoadPhoto(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.photos.Load(ctx, name)
}

func (s *CustomerService) deletePhoto(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if err := s.photos.Delete(ctx, name); err != nil {
		s.logger.Error("failed to delete photo", "photo", name, "error", err)
		return
	}
	s.metrics.RecordPhotoDeleted()
}
