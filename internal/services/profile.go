package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
	"gorm.io/gorm"
)

// PublicProfile is what other users see of a member.
type PublicProfile struct {
	UserID         uint                `json:"user_id"`
	Name           string              `json:"name"`
	Profile        *models.UserProfile `json:"profile,omitempty"`
	IsPrivate      bool                `json:"is_private"`
	ReviewCount    int64               `json:"review_count"`
	FollowersCount int64               `json:"followers_count"`
	FollowingCount int64               `json:"following_count"`
	IsFollowing    bool                `json:"is_following"`
}

type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// UpdateProfile creates the profile on first use and applies the set fields.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uint, req models.UpdateProfileRequest) (*models.UserProfile, error) {
	if req.DisplayName != nil {
		name := utils.SanitizeString(*req.DisplayName)
		req.DisplayName = &name
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	var profile models.UserProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.User{}, userID).Error; err != nil {
			return lookupError(err, "user", userID)
		}
		err := lockForUpdate(tx).Where("user_id = ?", userID).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			profile = models.UserProfile{UserID: userID, DietaryPreferences: []string{}}
			if err := tx.Create(&profile).Error; err != nil {
				return fmt.Errorf("create profile: %w", err)
			}
		} else if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if req.DisplayName != nil {
			updates["display_name"] = *req.DisplayName
			profile.DisplayName = *req.DisplayName
		}
		if req.AvatarURL != nil {
			updates["avatar_url"] = *req.AvatarURL
			profile.AvatarURL = *req.AvatarURL
		}
		if req.Bio != nil {
			updates["bio"] = *req.Bio
			profile.Bio = *req.Bio
		}
		if req.DietaryPreferences != nil {
			prefs := normalizeTags(req.DietaryPreferences)
			if prefs == nil {
				prefs = []string{}
			}
			profile.DietaryPreferences = prefs
			updates["dietary_preferences"] = profile.DietaryPreferences
		}
		if req.IsPrivate != nil {
			updates["is_private"] = *req.IsPrivate
			profile.IsPrivate = *req.IsPrivate
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&profile).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetPublicProfile shows userID's profile to viewerID (0 for anonymous).
// Private profiles keep their details and activity counts from everyone but
// the owner.
func (s *ProfileService) GetPublicProfile(ctx context.Context, viewerID, userID uint) (*PublicProfile, error) {
	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.Preload("Profile").Where("is_active = ?", true).First(&user, userID).Error; err != nil {
		return nil, lookupError(err, "user", userID)
	}

	out := &PublicProfile{UserID: user.ID, Name: user.Name}
	if user.Profile != nil {
		out.IsPrivate = user.Profile.IsPrivate
		if user.Profile.DisplayName != "" {
			out.Name = user.Profile.DisplayName
		}
	}
	if viewerID != 0 && viewerID != userID {
		var n int64
		if err := db.Model(&models.Follow{}).Where("follower_id = ? AND following_id = ?", viewerID, userID).Count(&n).Error; err != nil {
			return nil, err
		}
		out.IsFollowing = n > 0
	}
	if out.IsPrivate && viewerID != userID {
		return out, nil
	}

	out.Profile = user.Profile
	if err := OnlyVisible.apply(db.Model(&models.Review{}), "reviews").Where("user_id = ?", userID).Count(&out.ReviewCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Follow{}).Where("following_id = ?", userID).Count(&out.FollowersCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&out.FollowingCount).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProfileService) Follow(ctx context.Context, followerID, followingID uint) error {
	if followerID == followingID {
		return fieldError("user_id", "you cannot follow yourself")
	}
	db := s.db.WithContext(ctx)
	if err := db.Where("is_active = ?", true).First(&models.User{}, followingID).Error; err != nil {
		return lookupError(err, "user", followingID)
	}
	err := db.Create(&models.Follow{FollowerID: followerID, FollowingID: followingID}).Error
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: already following user %d", ErrDuplicate, followingID)
	}
	return err
}

func (s *ProfileService) Unfollow(ctx context.Context, followerID, followingID uint) error {
	res := s.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: not following user %d", ErrNotFound, followingID)
	}
	return nil
}

// Followers pages through the users following userID, most recent first.
func (s *ProfileService) Followers(ctx context.Context, viewerID, userID uint, page Page) (*utils.PaginatedData, error) {
	return s.followPage(ctx, "following_id", "follower_id", viewerID, userID, page)
}

// Following pages through the users userID follows, most recent first.
func (s *ProfileService) Following(ctx context.Context, viewerID, userID uint, page Page) (*utils.PaginatedData, error) {
	return s.followPage(ctx, "follower_id", "following_id", viewerID, userID, page)
}

func (s *ProfileService) followPage(ctx context.Context, matchCol, otherCol string, viewerID, userID uint, page Page) (*utils.PaginatedData, error) {
	page = page.normalize(DefaultPageSize)
	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.Preload("Profile").First(&user, userID).Error; err != nil {
		return nil, lookupError(err, "user", userID)
	}
	if user.Profile != nil && user.Profile.IsPrivate && viewerID != userID {
		return nil, fmt.Errorf("%w: profile of user %d is private", ErrForbidden, userID)
	}

	query := db.Model(&models.Follow{}).Where(matchCol+" = ?", userID).Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	var ids []uint
	if err := query.Order("created_at DESC").Order("id DESC").
		Offset(page.offset()).Limit(page.PageSize).
		Pluck(otherCol, &ids).Error; err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(ids))
	if len(ids) > 0 {
		var found []models.User
		if err := db.Preload("Profile").Where("id IN ?", ids).Find(&found).Error; err != nil {
			return nil, err
		}
		byID := make(map[uint]models.User, len(found))
		for _, u := range found {
			byID[u.ID] = u
		}
		for _, id := range ids {
			if u, ok := byID[id]; ok {
				users = append(users, u)
			}
		}
	}
	return paginated(users, total, page), nil
}
