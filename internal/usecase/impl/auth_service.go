// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"

	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/repository"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// decoyHash is a throwaway bcrypt hash compared against when login hits an
// unknown email, so the unknown-email and wrong-password paths cost the same
// and neither the response nor its timing enumerates users.
const decoyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMye.IjZAgcfl7p92ldGxad68LJZdL17lhWy"

// authService implements the AuthUsecase interface.
type authService struct {
	txManager    repository.TransactionManager
	userRepo     repository.UserRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	logger       *slog.Logger
}

// AuthServiceParams holds dependencies for the auth service, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Logger       *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		txManager:    params.TxManager,
		userRepo:     params.UserRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		logger:       params.Logger,
	}
}

// Register orchestrates the complete registration flow: field validation,
// duplicate check, password hashing, persistence and token issuance.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.AuthOutput, error) {
	srv.logger.Info("Starting registration", slog.String("email", input.Email))

	if input.Email == "" || input.Name == "" || input.Password == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "all fields are required")
	}

	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.logger.Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, "failed to hash password during registration")
	}

	var registeredUser *entity.User
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		// Duplicate registration rejects on email alone; the unique index
		// decides the winner of a concurrent race on the same email.
		_, findErr := userRepo.FindByEmail(ctx, input.Email)
		if findErr == nil {
			return errors.Wrap(domainerrors.ErrDuplicateEmail, "email already registered")
		}
		if !errors.Is(findErr, repository.ErrUserNotFound) {
			return errors.Wrap(findErr, "failed to check for existing user")
		}

		newUser := &entity.User{
			Email:        input.Email,
			Name:         input.Name,
			PasswordHash: hashedPassword,
		}

		if createErr := userRepo.Create(ctx, newUser); createErr != nil {
			if errors.Is(createErr, repository.ErrDuplicateEmail) {
				return errors.Wrap(domainerrors.ErrDuplicateEmail, "email already registered")
			}

			return errors.Wrap(createErr, "failed to create user during registration")
		}

		registeredUser = newUser

		return nil
	})
	if err != nil {
		srv.logger.Warn("Registration failed", slog.String("email", input.Email), slog.Any("error", err))

		return nil, err
	}

	token, err := srv.tokenService.Issue(registeredUser.ID, registeredUser.Email)
	if err != nil {
		srv.logger.Error("Failed to issue token after registration", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to issue token after registration")
	}

	srv.logger.Debug("Registration completed", slog.Any("userID", registeredUser.ID))

	return &usecase.AuthOutput{User: registeredUser, Token: token}, nil
}

// Login validates credentials and issues a fresh session token. Unknown
// email and wrong password are indistinguishable to the caller.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.AuthOutput, error) {
	srv.logger.Debug("Starting login", slog.String("email", input.Email))

	user, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Burn a compare anyway so this path costs the same as a
			// wrong-password attempt.
			srv.hasher.Check(input.Password, decoyHash)
			srv.logger.Warn("Login failed", slog.String("email", input.Email))

			return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
		}

		return nil, errors.Wrap(err, "failed to load user for login")
	}

	// bcrypt is CPU-bound; keep it outside any transaction.
	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.logger.Warn("Login failed", slog.String("email", input.Email))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	token, err := srv.tokenService.Issue(user.ID, user.Email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue token during login")
	}

	srv.logger.Debug("User logged in successfully", slog.Any("userID", user.ID))

	return &usecase.AuthOutput{User: user, Token: token}, nil
}

// GetProfile loads the profile of an authenticated principal. A verified
// token whose user has since been deleted yields ErrPrincipalGone.
func (srv *authService) GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	srv.logger.Debug("Getting user profile", slog.Any("userID", userID))

	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrPrincipalGone, "user no longer exists")
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	return user, nil
}

// UpdateProfile applies either a password change (when both password fields
// are supplied) or a partial name/email update, then issues a fresh token.
func (srv *authService) UpdateProfile(ctx context.Context, userID uuid.UUID, input *usecase.UpdateProfileInput) (*usecase.AuthOutput, error) {
	srv.logger.Info("Updating profile", slog.Any("userID", userID))

	wantsPasswordChange := input.CurrentPassword != nil && input.NewPassword != nil
	wantsFieldUpdate := input.Name != nil || input.Email != nil

	if !wantsPasswordChange && !wantsFieldUpdate {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "at least one field required")
	}

	var updatedUser *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		user, findErr := userRepo.FindByID(ctx, userID)
		if findErr != nil {
			if errors.Is(findErr, repository.ErrUserNotFound) {
				return errors.Wrap(domainerrors.ErrUserNotFound, "user not found")
			}

			return errors.Wrap(findErr, "failed to find user")
		}

		if wantsPasswordChange {
			return srv.changePassword(ctx, userRepo, user, input, &updatedUser)
		}

		return srv.updateFields(ctx, userRepo, user.ID, input, &updatedUser)
	})
	if err != nil {
		srv.logger.Warn("Profile update failed", slog.Any("userID", userID), slog.Any("error", err))

		return nil, err
	}

	// Refresh-on-update: every successful mutation hands back a new token.
	token, err := srv.tokenService.Issue(updatedUser.ID, updatedUser.Email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue token after profile update")
	}

	srv.logger.Debug("Profile updated", slog.Any("userID", updatedUser.ID))

	return &usecase.AuthOutput{User: updatedUser, Token: token}, nil
}

// DeleteAccount removes the account row. Tokens already issued for it keep
// verifying until expiry but every authenticated route then fails the
// principal lookup.
func (srv *authService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	srv.logger.Info("Deleting account", slog.Any("userID", userID))

	if err := srv.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(domainerrors.ErrUserNotFound, "user not found")
		}

		return errors.Wrap(err, "failed to delete account")
	}

	return nil
}

func (srv *authService) changePassword(
	ctx context.Context,
	userRepo repository.UserRepository,
	user *entity.User,
	input *usecase.UpdateProfileInput,
	updatedUser **entity.User,
) error {
	if !srv.hasher.Check(*input.CurrentPassword, user.PasswordHash) {
		return errors.Wrap(domainerrors.ErrInvalidCurrentPassword, "current password mismatch")
	}

	newHash, err := srv.hasher.Hash(*input.NewPassword)
	if err != nil {
		return errors.Wrap(domainerrors.ErrPasswordHashFailed, "failed to hash new password")
	}

	refreshed, err := userRepo.UpdatePasswordHash(ctx, user.ID, newHash)
	if err != nil {
		return errors.Wrap(err, "failed to persist new password hash")
	}

	*updatedUser = refreshed

	return nil
}

func (srv *authService) updateFields(
	ctx context.Context,
	userRepo repository.UserRepository,
	userID uuid.UUID,
	input *usecase.UpdateProfileInput,
	updatedUser **entity.User,
) error {
	update := &repository.UserUpdate{
		Name:  input.Name,
		Email: input.Email,
	}

	refreshed, err := userRepo.UpdateFields(ctx, userID, update)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return errors.Wrap(domainerrors.ErrDuplicateEmail, "email already registered")
		}

		return errors.Wrap(err, "failed to update profile fields")
	}

	*updatedUser = refreshed

	return nil
}
