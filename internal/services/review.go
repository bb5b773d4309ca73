package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
	"github.com/princeprakhar/foodnetwork-backend/pkg/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MaxReviewImages = 5
	RecentFeedLimit = 20
	reviewPageSize  = 10
)

type ReviewService struct {
	db     *gorm.DB
	images ImageStore
}

// NewReviewService builds the service. images may be nil when uploads are disabled.
func NewReviewService(db *gorm.DB, images ImageStore) *ReviewService {
	return &ReviewService{db: db, images: images}
}

// CreateReview posts the user's one review of a product and refreshes the
// product rating in the same transaction.
func (s *ReviewService) CreateReview(ctx context.Context, userID uint, req models.CreateReviewRequest) (*models.Review, error) {
	req.Content = utils.SanitizeString(req.Content)
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.Images == nil {
		req.Images = []string{}
	}

	review := models.Review{
		UserID:        userID,
		FoodProductID: req.FoodProductID,
		Rating:        req.Rating,
		Content:       req.Content,
		Images:        datatypes.JSONSlice[string](req.Images),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.FoodProduct
		err := OnlyVisible.apply(tx, "food_products").Select("id").First(&product, req.FoodProductID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("product", req.FoodProductID)
		}
		if err != nil {
			return err
		}

		if err := tx.Create(&review).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: you have already reviewed this product", ErrDuplicate)
			}
			return fmt.Errorf("create review: %w", err)
		}
		return recomputeRating(tx, review.FoodProductID)
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"review_id":  review.ID,
		"user_id":    userID,
		"product_id": review.FoodProductID,
	}).Info("review created")
	return &review, nil
}

// UpdateReview lets the author change rating, text or images.
func (s *ReviewService) UpdateReview(ctx context.Context, userID, reviewID uint, req models.UpdateReviewRequest) (*models.Review, error) {
	if req.Content != nil {
		trimmed := utils.SanitizeString(*req.Content)
		req.Content = &trimmed
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	var review models.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ownedReview(tx, userID, reviewID, &review); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if req.Rating != nil {
			updates["rating"] = *req.Rating
			review.Rating = *req.Rating
		}
		if req.Content != nil {
			updates["content"] = *req.Content
			review.Content = *req.Content
		}
		if req.Images != nil {
			review.Images = datatypes.JSONSlice[string](*req.Images)
			updates["images"] = review.Images
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&review).Updates(updates).Error; err != nil {
			return fmt.Errorf("update review: %w", err)
		}
		return recomputeRating(tx, review.FoodProductID)
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// DeleteReview removes the author's review with its comments and reactions.
func (s *ReviewService) DeleteReview(ctx context.Context, userID, reviewID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := s.ownedReview(tx, userID, reviewID, &review); err != nil {
			return err
		}
		return deleteReviewTx(tx, &review)
	})
}

func (s *ReviewService) ownedReview(tx *gorm.DB, userID, reviewID uint, review *models.Review) error {
	if err := lockForUpdate(tx).First(review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("review", reviewID)
		}
		return err
	}
	if review.UserID != userID {
		return fmt.Errorf("%w: review %d belongs to another user", ErrForbidden, reviewID)
	}
	return nil
}

// deleteReviewTx removes a review, the comment thread under it and every
// reaction, then refreshes the product rating. Reports and moderation logs
// pointing at the review survive.
func deleteReviewTx(tx *gorm.DB, review *models.Review) error {
	if err := removeCommentThread(tx, models.TargetReview, review.ID); err != nil {
		return err
	}
	if err := tx.Where("reactable_type = ? AND reactable_id = ?", models.TargetReview, review.ID).
		Delete(&models.Reaction{}).Error; err != nil {
		return err
	}
	if err := tx.Delete(&models.Review{}, review.ID).Error; err != nil {
		return err
	}
	return recomputeRating(tx, review.FoodProductID)
}

// GetReview returns a review and its comment thread, both filtered by vis.
func (s *ReviewService) GetReview(ctx context.Context, reviewID uint, vis Visibility) (*models.Review, error) {
	db := s.db.WithContext(ctx)
	var review models.Review
	err := vis.apply(db, "reviews").Preload("User").Preload("FoodProduct", vis.scope("food_products")).First(&review, reviewID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("review", reviewID)
	}
	if err != nil {
		return nil, err
	}

	comments, err := loadThread(db, models.TargetReview, review.ID, vis)
	if err != nil {
		return nil, err
	}
	review.Comments = comments
	return &review, nil
}

// ListProductReviews pages through a product's reviews, newest first.
func (s *ReviewService) ListProductReviews(ctx context.Context, productID uint, page Page, vis Visibility) (*utils.PaginatedData, error) {
	db := s.db.WithContext(ctx)
	var product models.FoodProduct
	err := vis.apply(db, "food_products").Select("id").First(&product, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("product", productID)
	}
	if err != nil {
		return nil, err
	}

	q := vis.apply(db.Model(&models.Review{}), "reviews").
		Where("food_product_id = ?", productID).
		Session(&gorm.Session{})
	return pageReviews(q, page, vis)
}

// ListUserReviews is the author's own view and includes hidden reviews. The
// products they point at are not the author's and stay filtered.
func (s *ReviewService) ListUserReviews(ctx context.Context, userID uint, page Page) (*utils.PaginatedData, error) {
	q := IncludeHidden.apply(s.db.WithContext(ctx).Model(&models.Review{}), "reviews").
		Where("user_id = ?", userID).
		Session(&gorm.Session{})
	return pageReviews(q, page, OnlyVisible)
}

// RecentReviews is the network-wide feed of visible reviews.
func (s *ReviewService) RecentReviews(ctx context.Context, limit int) ([]models.Review, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = RecentFeedLimit
	}
	var reviews []models.Review
	err := OnlyVisible.apply(s.db.WithContext(ctx), "reviews").
		Preload("User").Preload("FoodProduct", OnlyVisible.scope("food_products")).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("list recent reviews: %w", err)
	}
	return reviews, nil
}

func pageReviews(q *gorm.DB, page Page, productVis Visibility) (*utils.PaginatedData, error) {
	page = page.normalize(reviewPageSize)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}
	reviews := []models.Review{}
	err := q.Preload("User").Preload("FoodProduct", productVis.scope("food_products")).
		Order("created_at DESC").Order("id DESC").
		Limit(page.PageSize).Offset(page.offset()).
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return paginated(reviews, total, page), nil
}

// UploadPhotos stores review pictures and returns URLs for the images field.
func (s *ReviewService) UploadPhotos(ctx context.Context, userID uint, files []*multipart.FileHeader) ([]string, error) {
	if len(files) == 0 {
		return nil, fieldError("images", "at least one image is required")
	}
	if len(files) > MaxReviewImages {
		return nil, fieldError("images", fmt.Sprintf("images must contain at most %d items", MaxReviewImages))
	}
	results, err := uploadImages(ctx, s.images, fmt.Sprintf("reviews/%d", userID), files)
	if err != nil {
		return nil, err
	}
	urls := make([]string, len(results))
	for i, r := range results {
		urls[i] = r.URL
	}
	return urls, nil
}
