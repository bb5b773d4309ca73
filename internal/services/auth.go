package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/internal/types"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
	"github.com/princeprakhar/foodnetwork-backend/pkg/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const resetTokenTTL = time.Hour

type AuthService struct {
	db     *gorm.DB
	tokens utils.TokenSettings
	email  *EmailService
}

// NewAuthService builds the service. email may be nil, password reset mails are
// then only logged.
func NewAuthService(db *gorm.DB, tokens utils.TokenSettings, email *EmailService) *AuthService {
	return &AuthService{
		db:     db,
		tokens: tokens,
		email:  email,
	}
}

// IsModerator implements Authorizer from the user's stored role.
func (s *AuthService) IsModerator(ctx context.Context, userID uint) (bool, error) {
	var user models.User
	err := s.db.WithContext(ctx).Select("id", "role", "is_active").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsActive && user.CanModerate(), nil
}

func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*types.AuthResponse, error) {
	req.Email = strings.ToLower(utils.SanitizeString(req.Email))
	req.Name = utils.SanitizeString(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}

	user := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password, // Will be hashed in BeforeCreate hook
		Role:     models.RoleMember,
		IsActive: true,
	}

	var resp *types.AuthResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: user already exists", ErrDuplicate)
			}
			return fmt.Errorf("create user: %w", err)
		}
		var err error
		resp, err = s.issueTokens(tx, &user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*types.AuthResponse, error) {
	req.Email = strings.ToLower(utils.SanitizeString(req.Email))
	if err := validate(req); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.Where("email = ? AND is_active = ?", req.Email, true).First(&user).Error; err != nil {
		return nil, ErrUnauthorized
	}
	if !user.CheckPassword(req.Password) {
		return nil, ErrUnauthorized
	}

	var resp *types.AuthResponse
	err := db.Transaction(func(tx *gorm.DB) error {
		// a login supersedes every earlier session
		if err := tx.Model(&models.RefreshToken{}).Where("user_id = ?", user.ID).Update("is_revoked", true).Error; err != nil {
			return err
		}
		var err error
		resp, err = s.issueTokens(tx, &user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// RefreshToken rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (s *AuthService) RefreshToken(ctx context.Context, req models.RefreshRequest) (*types.AuthResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if _, err := utils.ParseToken(req.RefreshToken, s.tokens.Secret, utils.RefreshToken); err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	}

	var resp *types.AuthResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored models.RefreshToken
		if err := lockForUpdate(tx).Where("token = ? AND is_revoked = ? AND expires_at > ?", req.RefreshToken, false, time.Now()).
			First(&stored).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: refresh token not found or expired", ErrUnauthorized)
			}
			return err
		}

		var user models.User
		if err := tx.Where("id = ? AND is_active = ?", stored.UserID, true).First(&user).Error; err != nil {
			return fmt.Errorf("%w: user not found", ErrUnauthorized)
		}

		if err := tx.Model(&stored).Update("is_revoked", true).Error; err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		var err error
		resp, err = s.issueTokens(tx, &user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *AuthService) issueTokens(tx *gorm.DB, user *models.User) (*types.AuthResponse, error) {
	pair, err := utils.GenerateTokenPair(user.ID, user.Email, user.Role, s.tokens)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}
	refresh := models.RefreshToken{
		UserID:    user.ID,
		Token:     pair.RefreshToken,
		ExpiresAt: time.Unix(pair.RefreshTokenExpiresAt, 0),
	}
	if err := tx.Create(&refresh).Error; err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &types.AuthResponse{
		Token: *pair,
		User:  *user,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", refreshToken).
		Update("is_revoked", true).Error
}

func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ?", userID).
		Update("is_revoked", true).Error
}

func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Profile").Where("id = ? AND is_active = ?", userID, true).First(&user).Error
	if err != nil {
		return nil, lookupError(err, "user", userID)
	}
	return &user, nil
}

// SetRole changes a user's role. Only admins may call it.
func (s *AuthService) SetRole(ctx context.Context, adminID, userID uint, role string) (*models.User, error) {
	switch role {
	case models.RoleMember, models.RoleModerator, models.RoleAdmin:
	default:
		return nil, fieldError("role", "role must be one of the following values: member moderator admin")
	}

	db := s.db.WithContext(ctx)
	var admin models.User
	if err := db.Select("id", "role").First(&admin, adminID).Error; err != nil || admin.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: user %d is not an admin", ErrForbidden, adminID)
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, lookupError(err, "user", userID)
	}
	if err := db.Model(&user).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	user.Role = role

	logger.WithFields(logrus.Fields{"admin_id": adminID, "user_id": userID, "role": role}).Info("role changed")
	return &user, nil
}

// ForgotPassword mails a reset link. It succeeds for unknown addresses too so
// callers cannot probe which emails are registered.
func (s *AuthService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	req.Email = strings.ToLower(utils.SanitizeString(req.Email))
	if err := validate(req); err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.Where("email = ? AND is_active = ?", req.Email, true).First(&user).Error; err != nil {
		return nil
	}

	resetToken, err := utils.GenerateRandomString(32)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PasswordResetToken{}).
			Where("user_id = ? AND is_used = ?", user.ID, false).
			Update("is_used", true).Error; err != nil {
			return err
		}
		return tx.Create(&models.PasswordResetToken{
			UserID:    user.ID,
			Token:     resetToken,
			ExpiresAt: time.Now().Add(resetTokenTTL),
		}).Error
	})
	if err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}

	if s.email == nil {
		logger.WithFields(logrus.Fields{"user_id": user.ID}).Warn("mail disabled, password reset link not sent")
		return nil
	}
	if err := s.email.SendPasswordResetEmail(user.Email, resetToken); err != nil {
		logger.WithFields(logrus.Fields{"user_id": user.ID}).Errorf("send password reset email: %v", err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var resetToken models.PasswordResetToken
		if err := tx.Where("token = ? AND is_used = ? AND expires_at > ?", req.Token, false, time.Now()).
			First(&resetToken).Error; err != nil {
			return fieldError("token", "invalid or expired reset token")
		}

		var user models.User
		if err := tx.Where("id = ? AND is_active = ?", resetToken.UserID, true).First(&user).Error; err != nil {
			return lookupError(err, "user", resetToken.UserID)
		}
		if err := user.UpdatePassword(req.NewPassword); err != nil {
			return err
		}
		if err := tx.Model(&user).Update("password", user.Password).Error; err != nil {
			return err
		}
		if err := tx.Model(&resetToken).Update("is_used", true).Error; err != nil {
			return err
		}
		return tx.Model(&models.RefreshToken{}).Where("user_id = ?", user.ID).Update("is_revoked", true).Error
	})
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, req models.ChangePasswordRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.Where("id = ? AND is_active = ?", userID, true).First(&user).Error; err != nil {
		return lookupError(err, "user", userID)
	}
	if !user.CheckPassword(req.CurrentPassword) {
		return fieldError("current_password", "current password is incorrect")
	}
	if err := user.UpdatePassword(req.NewPassword); err != nil {
		return err
	}
	return db.Model(&user).Update("password", user.Password).Error
}
