package sellers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/devsergyo/sales-commissions/internal/reportcache"
	"github.com/devsergyo/sales-commissions/pkg/db"
	"github.com/devsergyo/sales-commissions/pkg/db/models"
	pkgerrors "github.com/devsergyo/sales-commissions/pkg/errors"
	"github.com/devsergyo/sales-commissions/pkg/logger"
)

const (
	MsgNotFound   = "Vendedor não encontrado"
	MsgEmailTaken = "O e-mail informado já está cadastrado."
)

// Service manages the seller directory.
type Service interface {
	List(ctx context.Context) ([]models.Seller, error)
	Get(ctx context.Context, id int64) (*models.Seller, error)
	Find(ctx context.Context, id int64) (*models.Seller, error)
	FindByEmail(ctx context.Context, email string) (*models.Seller, error)
	Create(ctx context.Context, input CreateInput) (*models.Seller, error)
	Update(ctx context.Context, id int64, input UpdateInput) (*models.Seller, error)
	Delete(ctx context.Context, id int64) error
}

// CreateInput carries a new seller registration.
type CreateInput struct {
	FirstName string `json:"first_name" validate:"required,max=255"`
	LastName  string `json:"last_name" validate:"required,max=255"`
	Email     string `json:"email" validate:"required,email,max=255"`
}

// UpdateInput changes only the fields that are set.
type UpdateInput struct {
	FirstName *string `json:"first_name" validate:"omitnil,min=1,max=255"`
	LastName  *string `json:"last_name" validate:"omitnil,min=1,max=255"`
	Email     *string `json:"email" validate:"omitnil,email,max=255"`
}

// CacheInvalidator is the slice of the aggregate cache the directory needs.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, keyOrPrefix string) error
}

type ServiceParams struct {
	Repo   Repository
	Cache  CacheInvalidator
	Logger *logger.Logger
}

type service struct {
	repo     Repository
	cache    CacheInvalidator
	logg     *logger.Logger
	validate *validator.Validate
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sellers repository required")
	}
	if params.Cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "report cache required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:     params.Repo,
		cache:    params.Cache,
		logg:     params.Logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

func (s *service) List(ctx context.Context) ([]models.Seller, error) {
	sellers, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listar vendedores")
	}
	return sellers, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Seller, error) {
	seller, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, notFound(id)
	}
	return seller, nil
}

// Find returns (nil, nil) when the seller does not exist.
func (s *service) Find(ctx context.Context, id int64) (*models.Seller, error) {
	seller, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "buscar vendedor")
	}
	return seller, nil
}

func (s *service) FindByEmail(ctx context.Context, email string) (*models.Seller, error) {
	seller, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "buscar vendedor por e-mail")
	}
	return seller, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Seller, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = normalizeEmail(input.Email)
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "dados do vendedor inválidos")
	}

	if err := s.ensureEmailAvailable(ctx, input.Email, 0); err != nil {
		return nil, err
	}

	seller := &models.Seller{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
	}
	if err := s.repo.Create(ctx, seller); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, MsgEmailTaken)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cadastrar vendedor")
	}

	s.invalidateRoster(ctx)
	return seller, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateInput) (*models.Seller, error) {
	input.FirstName = trimmed(input.FirstName)
	input.LastName = trimmed(input.LastName)
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		input.Email = &email
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "dados do vendedor inválidos")
	}

	seller, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		seller.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		seller.LastName = *input.LastName
	}
	if input.Email != nil && *input.Email != seller.Email {
		if err := s.ensureEmailAvailable(ctx, *input.Email, seller.ID); err != nil {
			return nil, err
		}
		seller.Email = *input.Email
	}

	if err := s.repo.Update(ctx, seller); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, MsgEmailTaken)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "atualizar vendedor")
	}

	s.invalidateRoster(ctx)
	return seller, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remover vendedor")
	}
	if !deleted {
		return notFound(id)
	}
	s.invalidateRoster(ctx)
	return nil
}

func (s *service) ensureEmailAvailable(ctx context.Context, email string, selfID int64) error {
	existing, err := s.repo.FindByEmailIncludingDeleted(ctx, email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verificar e-mail")
	}
	if existing != nil && existing.ID != selfID {
		return pkgerrors.New(pkgerrors.CodeConflict, MsgEmailTaken).
			WithDetails(map[string]any{"email": email})
	}
	return nil
}

// invalidateRoster is best effort; on failure the roster stays stale until its TTL.
func (s *service) invalidateRoster(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, reportcache.RosterKey()); err != nil {
		s.logg.Error(ctx, "sellers.roster_invalidation_failed", err)
	}
}

func notFound(id int64) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, MsgNotFound).
		WithDetails(map[string]any{"error": fmt.Sprintf("Vendedor com ID %d não existe.", id)})
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	out := strings.TrimSpace(*value)
	return &out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
