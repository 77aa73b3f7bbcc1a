package service

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"textbook-backend/internal/domains/user/model"
	"textbook-backend/internal/domains/user/repository"
	"textbook-backend/internal/shared/apperror"
	"textbook-backend/internal/shared/pagination"
	"textbook-backend/internal/shared/rbac"
	"textbook-backend/pkg/jwt"
	"textbook-backend/pkg/logger"
)

type UserService interface {
	Register(ctx context.Context, actor rbac.Actor, req model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*model.LoginResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, actor rbac.Actor, params pagination.Params) ([]model.User, int, error)
	Update(ctx context.Context, actor rbac.Actor, id uuid.UUID, req model.UpdateUserRequest) (*model.User, error)
	ChangePassword(ctx context.Context, actor rbac.Actor, req model.ChangePasswordRequest) error
	Delete(ctx context.Context, actor rbac.Actor, id uuid.UUID) error
}

type userService struct {
	repo       repository.UserRepository
	jwtManager *jwt.Manager
}

func NewUserService(repo repository.UserRepository, jwtManager *jwt.Manager) UserService {
	return &userService{
		repo:       repo,
		jwtManager: jwtManager,
	}
}

// Register creates a new account. Only admins may assign privileged
// roles; anyone else gets a regular_user account regardless of the
// requested role.
func (s *userService) Register(ctx context.Context, actor rbac.Actor, req model.RegisterRequest) (*model.User, error) {
	role := req.Role
	if actor.Role != rbac.RoleAdmin && role != rbac.RoleRegularUser {
		role = rbac.RoleRegularUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Storage("hash password", err)
	}

	u := &model.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         role,
		IsActive:     true,
	}
	if req.Department != "" {
		u.Department = &req.Department
	}
	if req.Phone != "" {
		u.Phone = &req.Phone
	}
	if req.Email != "" {
		u.Email = &req.Email
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	logger.Info("user registered", map[string]interface{}{
		"username": u.Username,
		"role":     u.Role,
	})

	return u, nil
}

func (s *userService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	u, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			return nil, apperror.PermissionDenied("invalid username or password")
		}
		return nil, err
	}

	if !u.IsActive {
		return nil, apperror.PermissionDenied("account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.PermissionDenied("invalid username or password")
	}

	// Best effort: a failed stamp must not block the login.
	if err := s.repo.TouchLastLogin(ctx, u.ID); err != nil {
		logger.Warn("failed to stamp last login", map[string]interface{}{
			"username": u.Username,
		})
	}

	return s.issueTokens(u)
}

// Refresh exchanges a valid refresh token for a new token pair. The
// user record is re-read so role changes take effect on rotation.
func (s *userService) Refresh(ctx context.Context, refreshToken string) (*model.LoginResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.PermissionDenied("invalid refresh token")
	}

	u, err := s.repo.FindByUsername(ctx, claims.Username)
	if err != nil {
		return nil, apperror.PermissionDenied("invalid refresh token")
	}
	if !u.IsActive {
		return nil, apperror.PermissionDenied("account is disabled")
	}

	return s.issueTokens(u)
}

func (s *userService) issueTokens(u *model.User) (*model.LoginResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(u.ID.String(), u.Username, u.Role)
	if err != nil {
		return nil, apperror.Storage("generate access token", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(u.ID.String(), u.Username, u.Role)
	if err != nil {
		return nil, apperror.Storage("generate refresh token", err)
	}

	return &model.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *u,
	}, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.repo.FindByUsername(ctx, username)
}

func (s *userService) List(ctx context.Context, actor rbac.Actor, params pagination.Params) ([]model.User, int, error) {
	if err := rbac.RequireRole(actor, rbac.RoleAdmin); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, params.Clamped())
}

func (s *userService) Update(ctx context.Context, actor rbac.Actor, id uuid.UUID, req model.UpdateUserRequest) (*model.User, error) {
	// Admins can edit anyone; everyone else only their own profile,
	// and never their own role or active flag.
	self := actor.UserID == id.String()
	if actor.Role != rbac.RoleAdmin {
		if !self {
			return nil, apperror.PermissionDenied("cannot modify another user")
		}
		if req.Role != nil || req.IsActive != nil {
			return nil, apperror.PermissionDenied("cannot change own role or status")
		}
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		u.FullName = *req.FullName
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.Department != nil {
		u.Department = req.Department
	}
	if req.Phone != nil {
		u.Phone = req.Phone
	}
	if req.Email != nil {
		u.Email = req.Email
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *userService) ChangePassword(ctx context.Context, actor rbac.Actor, req model.ChangePasswordRequest) error {
	u, err := s.repo.FindByUsername(ctx, actor.Username)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.OldPassword)); err != nil {
		return apperror.PermissionDenied("old password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperror.Storage("hash password", err)
	}
	u.PasswordHash = string(hash)

	return s.repo.Update(ctx, u)
}

func (s *userService) Delete(ctx context.Context, actor rbac.Actor, id uuid.UUID) error {
	if err := rbac.RequireRole(actor, rbac.RoleAdmin); err != nil {
		return err
	}
	if actor.UserID == id.String() {
		return apperror.Conflict("cannot delete own account")
	}
	return s.repo.Delete(ctx, id)
}
