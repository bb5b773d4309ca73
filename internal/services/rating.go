package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const ratingPlaces = 2

// RatingAggregator keeps a product's average_rating and review_count equal to
// the mean and count of its visible reviews. It is the only writer of both.
type RatingAggregator struct {
	db *gorm.DB
}

func NewRatingAggregator(db *gorm.DB) *RatingAggregator {
	return &RatingAggregator{db: db}
}

// RecomputeRating refreshes the cached rating of a product in its own
// transaction. A missing product is not an error.
func (a *RatingAggregator) RecomputeRating(ctx context.Context, productID uint) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return recomputeRating(tx, productID)
	})
}

// AverageRating is total/count rounded half away from zero to two places, or
// zero for an empty set.
func AverageRating(total, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(total).DivRound(decimal.NewFromInt(count), ratingPlaces)
}

// recomputeRating must run inside tx, the same transaction as the review write
// that triggered it. The product row is locked first so concurrent recomputes
// for one product are serialised and the last one reads every committed review.
func recomputeRating(tx *gorm.DB, productID uint) error {
	var product models.FoodProduct
	err := lockForUpdate(tx).Select("id").First(&product, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lock product %d: %w", productID, err)
	}

	var agg struct {
		Count int64
		Total int64
	}
	err = tx.Model(&models.Review{}).
		Select("COUNT(*) AS count, COALESCE(SUM(rating), 0) AS total").
		Where("food_product_id = ? AND is_hidden = ?", productID, false).
		Scan(&agg).Error
	if err != nil {
		return fmt.Errorf("aggregate reviews of product %d: %w", productID, err)
	}

	avg := AverageRating(agg.Total, agg.Count)
	err = tx.Model(&models.FoodProduct{}).Where("id = ?", productID).Updates(map[string]interface{}{
		"average_rating": avg,
		"review_count":   agg.Count,
	}).Error
	if err != nil {
		return fmt.Errorf("store rating of product %d: %w", productID, err)
	}

	logger.WithFields(logrus.Fields{
		"product_id":     productID,
		"average_rating": avg.StringFixed(ratingPlaces),
		"review_count":   agg.Count,
	}).Debug("rating recomputed")
	return nil
}
