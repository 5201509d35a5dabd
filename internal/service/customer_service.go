package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"bagshop/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minPasswordLen = 8
	// bcrypt не различает пароли длиннее 72 байт
	maxPasswordBytes = 72
)

type CustomerRepo interface {
	Create(ctx context.Context, c *models.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	GetByEmail(ctx context.Context, email string) (*models.Customer, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
}

type LoginResult struct {
	Customer    *models.Customer
	AccessToken string
	ExpiresAt   time.Time
}

type CustomerService struct {
	customers CustomerRepo
	hasher    PasswordHasher
	tokens    TokenProvider
	accessTTL time.Duration
	log       *zap.Logger
}

func NewCustomerService(customers CustomerRepo, hasher PasswordHasher, tokens TokenProvider, accessTTL time.Duration, log *zap.Logger) *CustomerService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CustomerService{
		customers: customers,
		hasher:    hasher,
		tokens:    tokens,
		accessTTL: accessTTL,
		log:       log,
	}
}

func validateRegister(in RegisterInput) error {
	ve := &ValidationError{}
	if in.FirstName == "" {
		ve.add("first_name", "required")
	}
	if in.LastName == "" {
		ve.add("last_name", "required")
	}
	switch {
	case in.Email == "":
		ve.add("email", "required")
	case !validEmail(in.Email):
		ve.add("email", "invalid email format")
	}
	switch {
	case in.Password == "":
		ve.add("password", "required")
	case len(in.Password) < minPasswordLen:
		ve.add("password", "must be at least 8 characters")
	case len(in.Password) > maxPasswordBytes:
		ve.add("password", "must be at most 72 bytes")
	}
	return ve.orNil()
}

func (s *CustomerService) Register(ctx context.Context, in RegisterInput) (*models.Customer, error) {
	return s.create(ctx, in, models.RoleCustomer)
}

// CreateAdmin используется cmd/migrate для первичной учётки администратора.
// Если email уже занят, учётке выдаётся роль администратора.
func (s *CustomerService) CreateAdmin(ctx context.Context, in RegisterInput) (*models.Customer, error) {
	in.Email = strings.TrimSpace(in.Email)
	existing, err := s.customers.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Role != models.RoleAdmin {
			if err := s.customers.UpdateRole(ctx, existing.ID, models.RoleAdmin); err != nil {
				return nil, err
			}
			existing.Role = models.RoleAdmin
		}
		return existing, nil
	}
	return s.create(ctx, in, models.RoleAdmin)
}

func (s *CustomerService) create(ctx context.Context, in RegisterInput, role models.Role) (*models.Customer, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	if err := validateRegister(in); err != nil {
		return nil, err
	}

	exists, err := s.customers.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	c := &models.Customer{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		PhoneNumber:  in.Phone,
		Role:         role,
	}
	if err := s.customers.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	s.log.Info("Зарегистрирован покупатель", zap.String("customer_id", c.ID.String()), zap.String("role", string(role)))
	return c, nil
}

func (s *CustomerService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	c, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if c == nil || !s.hasher.Compare(c.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(c.PasswordHash) {
		s.rehash(ctx, c, password)
	}

	token, exp, err := s.tokens.SignAccess(ctx, AccessSubject{CustomerID: c.ID, Role: c.Role, Email: c.Email}, s.accessTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Customer: c, AccessToken: token, ExpiresAt: exp}, nil
}

// rehash пересчитывает хеш после повышения BCRYPT_COST. Вход от ошибки не зависит.
func (s *CustomerService) rehash(ctx context.Context, c *models.Customer, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.customers.UpdatePasswordHash(ctx, c.ID, hash)
	}
	if err != nil {
		s.log.Warn("Не удалось обновить хеш пароля", zap.String("customer_id", c.ID.String()), zap.Error(err))
		return
	}
	c.PasswordHash = hash
	s.log.Info("Хеш пароля пересчитан", zap.String("customer_id", c.ID.String()))
}

func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrUnauthorized
	}
	return c, nil
}

// Authenticate разбирает access-токен и возвращает контекст с покупателем и ролью.
func (s *CustomerService) Authenticate(ctx context.Context, token string) (context.Context, error) {
	claims, err := s.tokens.ParseAndValidateAccess(ctx, token)
	if err != nil {
		return ctx, ErrUnauthorized
	}
	ctx = WithUserID(ctx, claims.UserID)
	ctx = WithRole(ctx, models.Role(claims.Role))
	return ctx, nil
}
