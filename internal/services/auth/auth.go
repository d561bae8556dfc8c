// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/tradingpro/internal/lib/jwt"
	"github.com/magabrotheeeer/tradingpro/internal/lib/password"
	"github.com/magabrotheeeer/tradingpro/internal/models"
)

// RecentPaymentsLimit число платежей, которые показываются в личном кабинете.
const RecentPaymentsLimit = 5

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его ID.
	CreateUser(ctx context.Context, user models.User) (int64, error)
	// GetUserByEmail возвращает пользователя по email или models.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateCapital(ctx context.Context, userID int64, capital float64) error
	CountActiveSubscribers(ctx context.Context, today time.Time) (int, error)
	ListPaymentsByUser(ctx context.Context, userID int64, limit int) ([]*models.Payment, error)
}

// AuthService отвечает за регистрацию, авторизацию, валидацию JWT и профиль пользователя.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// NormalizeEmail приводит email к виду, в котором он хранится.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создает нового пользователя без подписки с хэшированием пароля.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (int64, error) {
	const op = "services.AuthService.Register"
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	user := models.User{
		Email:        NormalizeEmail(req.Email),
		PasswordHash: hashed,
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
	}
	id, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// Login проверяет пароль пользователя и генерирует JWT.
// Неизвестный email и неверный пароль неразличимы для вызывающего кода.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	const op = "services.AuthService.Login"
	user, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}
	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email, user.Role())
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// ValidateToken проверяет JWT и возвращает данные пользователя из него.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*models.Identity, error) {
	const op = "services.AuthService.ValidateToken"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.Identity{UserID: id, Email: claims.Email, Role: claims.Role}, nil
}

// GetUser возвращает пользователя по ID.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	const op = "services.AuthService.GetUser"
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// HasActiveSubscription сообщает, действует ли подписка пользователя на дату today.
func (s *AuthService) HasActiveSubscription(ctx context.Context, userID int64, today time.Time) (bool, error) {
	const op = "services.AuthService.HasActiveSubscription"
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return u.HasActiveSubscription(today), nil
}

// Me возвращает профиль пользователя и его последние платежи.
func (s *AuthService) Me(ctx context.Context, userID int64) (*models.User, []*models.Payment, error) {
	const op = "services.AuthService.Me"
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	payments, err := s.users.ListPaymentsByUser(ctx, userID, RecentPaymentsLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if payments == nil {
		payments = []*models.Payment{}
	}
	return u, payments, nil
}

// UpdateCapital сохраняет капитал пользователя для прогноза прибыли.
func (s *AuthService) UpdateCapital(ctx context.Context, userID int64, capital float64) error {
	const op = "services.AuthService.UpdateCapital"
	if capital < 0 {
		return fmt.Errorf("%s: %w", op, models.ErrInvalidCapital)
	}
	if err := s.users.UpdateCapital(ctx, userID, capital); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// EnsureAdmin создаёт администратора с указанными данными, если пользователя
// с таким email ещё нет. Пустой email означает, что bootstrap отключён.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, rawPassword, name string) error {
	const op = "services.AuthService.EnsureAdmin"
	email = NormalizeEmail(email)
	if email == "" || rawPassword == "" {
		return nil
	}
	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	id, err := s.users.CreateUser(ctx, models.User{
		Email:        email,
		PasswordHash: hashed,
		Name:         name,
		IsAdmin:      true,
	})
	if err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("admin user created", slog.Int64("id", id), slog.String("email", email))
	return nil
}

// Overview возвращает список пользователей и число действующих подписчиков.
func (s *AuthService) Overview(ctx context.Context, today time.Time) (*models.Overview, error) {
	const op = "services.AuthService.Overview"
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	active, err := s.users.CountActiveSubscribers(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if users == nil {
		users = []*models.User{}
	}
	return &models.Overview{Users: users, ActiveSubscribers: active}, nil
}
