package cart

import (
	"bytes"
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// lookupConcurrency — сколько товаров корзины читаем из каталога параллельно.
const lookupConcurrency = 8

// ProductView — то, что корзине нужно знать о товаре. Всегда читается из
// актуальной строки каталога.
type ProductView struct {
	ID            uuid.UUID
	Name          string
	SKU           string
	Price         decimal.Decimal
	IsActive      bool
	StockQuantity int
	ImageURL      string
	CategoryName  string
}

// CatalogReader возвращает (nil, nil), если товара нет.
type CatalogReader interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (*ProductView, error)
}

type Line struct {
	ProductID     uuid.UUID       `json:"product_id" swaggertype:"string"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	ImageURL      string          `json:"image_url,omitempty"`
	CategoryName  string          `json:"category_name,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price" swaggertype:"string"`
	Quantity      int             `json:"quantity"`
	LineTotal     decimal.Decimal `json:"line_total" swaggertype:"string"`
	StockQuantity int             `json:"stock_quantity"`
	IsActive      bool            `json:"is_active"`
}

// Result — исход операции для веб-слоя. Err заполнен, только когда
// операция отклонена; по нему выбирается код ответа.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

type Service struct {
	store   SessionStore
	catalog CatalogReader
	log     *zap.Logger
}

func NewService(store SessionStore, catalog CatalogReader, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, catalog: catalog, log: log}
}

// lookup проверяет товар так же, как AddItem: существует и активен.
func (s *Service) lookup(ctx context.Context, productID uuid.UUID) (*ProductView, error) {
	p, err := s.catalog.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	if !p.IsActive {
		return p, &inactiveError{name: p.Name}
	}
	return p, nil
}

func (s *Service) AddItem(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	p, err := s.lookup(ctx, productID)
	if err != nil {
		return err
	}

	items, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return err
	}

	// сравниваем с остатком за вычетом корзины: current+quantity может переполнить int
	current := items[productID]
	if quantity > p.StockQuantity-current {
		return &StockError{
			ProductID: productID,
			Name:      p.Name,
			InCart:    current,
			Requested: quantity,
			Available: p.StockQuantity,
		}
	}

	items[productID] = current + quantity
	return s.store.Save(ctx, sessionID, items)
}

// UpdateItem задаёт количество. Если товар пропал или выключен, строка
// удаляется и возвращается Result{OK:false} без ошибки.
func (s *Service) UpdateItem(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (Result, error) {
	items, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}

	current, ok := items[productID]
	if !ok {
		return Result{}, ErrItemNotInCart
	}
	if quantity < 0 {
		return Result{}, ErrInvalidQuantity
	}
	if quantity == 0 {
		delete(items, productID)
		if err := s.store.Save(ctx, sessionID, items); err != nil {
			return Result{}, err
		}
		return Result{OK: true}, nil
	}

	p, err := s.lookup(ctx, productID)
	switch {
	case errors.Is(err, ErrProductNotFound):
		delete(items, productID)
		if err := s.store.Save(ctx, sessionID, items); err != nil {
			return Result{}, err
		}
		return Result{Message: "Product data not found in database, item removed from cart."}, nil
	case errors.Is(err, ErrProductInactive):
		delete(items, productID)
		if err := s.store.Save(ctx, sessionID, items); err != nil {
			return Result{}, err
		}
		return Result{Message: "This product (" + p.Name + ") is currently unavailable and has been removed from your cart."}, nil
	case err != nil:
		return Result{}, err
	}

	if quantity > p.StockQuantity {
		return Result{}, &StockError{
			ProductID: productID,
			Name:      p.Name,
			InCart:    current,
			Requested: quantity,
			Available: p.StockQuantity,
			replace:   true,
		}
	}

	items[productID] = quantity
	if err := s.store.Save(ctx, sessionID, items); err != nil {
		return Result{}, err
	}
	return Result{OK: true}, nil
}

func (s *Service) RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) error {
	items, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	if _, ok := items[productID]; !ok {
		return nil
	}
	delete(items, productID)
	return s.store.Save(ctx, sessionID, items)
}

func (s *Service) ClearCart(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}

// Materialize разворачивает корзину по живым данным каталога. Строки
// исчезнувших товаров выбрасываются из корзины, а не валят вызов.
// Результат упорядочен по product id.
func (s *Service) Materialize(ctx context.Context, sessionID string) ([]Line, error) {
	items, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })

	views := make([]*ProductView, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			p, err := s.catalog.GetProductByID(gctx, id)
			if err != nil {
				return err
			}
			views[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(ids))
	var stale []uuid.UUID
	for i, id := range ids {
		p := views[i]
		if p == nil {
			stale = append(stale, id)
			continue
		}

		qty := items[id]
		lines = append(lines, Line{
			ProductID:     p.ID,
			Name:          p.Name,
			SKU:           p.SKU,
			ImageURL:      p.ImageURL,
			CategoryName:  p.CategoryName,
			UnitPrice:     p.Price,
			Quantity:      qty,
			LineTotal:     p.Price.Mul(decimal.NewFromInt(int64(qty))),
			StockQuantity: p.StockQuantity,
			IsActive:      p.IsActive,
		})
	}

	if len(stale) > 0 {
		for _, id := range stale {
			delete(items, id)
		}
		if err := s.store.Save(ctx, sessionID, items); err != nil {
			return nil, err
		}
		s.log.Info("Из корзины удалены исчезнувшие товары",
			zap.String("session", sessionID),
			zap.Int("removed", len(stale)),
		)
	}

	return lines, nil
}

func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.LineTotal)
	}
	return sum
}

func (s *Service) TotalItemCount(ctx context.Context, sessionID string) (int, error) {
	items, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, q := range items {
		total += q
	}
	return total, nil
}

func (s *Service) UniqueLineCount(ctx context.Context, sessionID string) (int, error) {
	items, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Add — вариант AddItem для веб-слоя: ошибка превращается в сообщение.
func (s *Service) Add(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) Result {
	if err := s.AddItem(ctx, sessionID, productID, quantity); err != nil {
		return s.failure(sessionID, productID, err)
	}
	return Result{OK: true}
}

func (s *Service) Update(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) Result {
	res, err := s.UpdateItem(ctx, sessionID, productID, quantity)
	if err != nil {
		return s.failure(sessionID, productID, err)
	}
	return res
}

func (s *Service) failure(sessionID string, productID uuid.UUID, err error) Result {
	msg := Message(err)
	if msg == systemErrorMessage {
		s.log.Error("Ошибка корзины",
			zap.String("session", sessionID),
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
	}
	return Result{Message: msg, Err: err}
}
