package sales

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/devsergyo/sales-commissions/internal/reportcache"
	"github.com/devsergyo/sales-commissions/pkg/db/models"
	pkgerrors "github.com/devsergyo/sales-commissions/pkg/errors"
	"github.com/devsergyo/sales-commissions/pkg/logger"
	"github.com/devsergyo/sales-commissions/pkg/types"
)

const (
	MsgValidation        = "Erro de validação"
	MsgSellerRequired    = "O vendedor é obrigatório"
	MsgSellerNotFound    = "O vendedor selecionado não existe"
	MsgAmountRequired    = "O valor da venda é obrigatório"
	MsgAmountMin         = "O valor da venda deve ser maior que zero"
	MsgSaleDateRequired  = "A data da venda é obrigatória"
	MsgSaleDateInvalid   = "A data da venda deve ser uma data válida"
	MsgSaleDateNotFuture = "A data da venda não pode ser futura"
	MsgUnknownSeller     = "Vendedor não encontrado"
)

// Service records sales and lists them.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Sale, error)
	List(ctx context.Context) ([]models.Sale, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]models.Sale, error)
}

// CreateInput is a sale registration. Amount accepts JSON numbers or strings.
type CreateInput struct {
	SellerID *int64           `json:"seller_id"`
	Amount   *decimal.Decimal `json:"amount"`
	SaleDate string           `json:"sale_date"`
}

// SellerFinder resolves sellers; it returns (nil, nil) for unknown ids.
type SellerFinder interface {
	Find(ctx context.Context, id int64) (*models.Seller, error)
}

// CacheInvalidator drops stale aggregate entries after a write.
type CacheInvalidator interface {
	InvalidateAll(ctx context.Context, keys ...string) error
}

type ServiceParams struct {
	Repo    Repository
	Sellers SellerFinder
	Cache   CacheInvalidator
	Logger  *logger.Logger
	Now     func() time.Time
}

type service struct {
	repo    Repository
	sellers SellerFinder
	cache   CacheInvalidator
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sales repository required")
	}
	if params.Sellers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "seller directory required")
	}
	if params.Cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "report cache required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    params.Repo,
		sellers: params.Sellers,
		cache:   params.Cache,
		logg:    params.Logger,
		now:     now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Sale, error) {
	fields := types.FieldErrors{}

	if input.SellerID == nil || *input.SellerID <= 0 {
		fields.Add("seller_id", MsgSellerRequired)
	}

	if input.Amount == nil {
		fields.Add("amount", MsgAmountRequired)
	} else if input.Amount.LessThan(MinAmount) {
		fields.Add("amount", MsgAmountMin)
	}

	var saleDate types.Date
	if input.SaleDate == "" {
		fields.Add("sale_date", MsgSaleDateRequired)
	} else if parsed, err := types.ParseDate(input.SaleDate); err != nil {
		fields.Add("sale_date", MsgSaleDateInvalid)
	} else if parsed.After(types.DateOf(s.now())) {
		fields.Add("sale_date", MsgSaleDateNotFuture)
	} else {
		saleDate = parsed
	}

	var seller *models.Seller
	if _, bad := fields["seller_id"]; !bad {
		found, err := s.sellers.Find(ctx, *input.SellerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "buscar vendedor")
		}
		if found == nil {
			fields.Add("seller_id", MsgSellerNotFound)
		}
		seller = found
	}

	if !fields.Empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, MsgValidation).WithDetails(map[string][]string(fields))
	}

	amount := input.Amount.Round(2)
	sale := &models.Sale{
		SellerID:   seller.ID,
		Amount:     amount,
		Commission: Commission(amount),
		SaleDate:   saleDate,
	}
	if err := s.repo.Create(ctx, sale); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "registrar venda")
	}
	sale.Seller = seller

	if err := s.cache.InvalidateAll(ctx, reportcache.SaleWriteKeys(sale.SellerID, sale.SaleDate)...); err != nil {
		logCtx := s.logg.WithSellerID(ctx, sale.SellerID)
		logCtx = s.logg.WithReportDate(logCtx, sale.SaleDate.String())
		s.logg.Error(logCtx, "sales.cache_invalidation_failed", err)
	}

	return sale, nil
}

func (s *service) List(ctx context.Context) ([]models.Sale, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listar vendas")
	}
	return rows, nil
}

func (s *service) ListBySeller(ctx context.Context, sellerID int64) ([]models.Sale, error) {
	seller, err := s.sellers.Find(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "buscar vendedor")
	}
	if seller == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, MsgUnknownSeller)
	}
	rows, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listar vendas do vendedor")
	}
	return rows, nil
}
