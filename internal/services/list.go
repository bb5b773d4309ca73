package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
	"gorm.io/gorm"
)

type ListService struct {
	db *gorm.DB
}

func NewListService(db *gorm.DB) *ListService {
	return &ListService{db: db}
}

func (s *ListService) CreateList(ctx context.Context, userID uint, req models.FoodListRequest) (*models.FoodList, error) {
	req.Name = utils.SanitizeString(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}
	list := models.FoodList{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic == nil || *req.IsPublic,
	}
	if err := s.db.WithContext(ctx).Create(&list).Error; err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}
	return &list, nil
}

func (s *ListService) UpdateList(ctx context.Context, userID, listID uint, req models.FoodListRequest) (*models.FoodList, error) {
	req.Name = utils.SanitizeString(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}
	var list models.FoodList
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ownedList(tx, userID, listID, &list); err != nil {
			return err
		}
		updates := map[string]interface{}{
			"name":        req.Name,
			"description": req.Description,
		}
		if req.IsPublic != nil {
			updates["is_public"] = *req.IsPublic
			list.IsPublic = *req.IsPublic
		}
		list.Name, list.Description = req.Name, req.Description
		return tx.Model(&list).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &list, nil
}

func (s *ListService) DeleteList(ctx context.Context, userID, listID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var list models.FoodList
		if err := ownedList(tx, userID, listID, &list); err != nil {
			return err
		}
		if err := tx.Where("food_list_id = ?", listID).Delete(&models.FoodListItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&list).Error
	})
}

// GetList returns a list with its items in order. Private lists are only
// visible to their owner; viewerID 0 means an anonymous caller. Items whose
// product is filtered out by vis keep their place but carry no product.
func (s *ListService) GetList(ctx context.Context, viewerID, listID uint, vis Visibility) (*models.FoodList, error) {
	var list models.FoodList
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC").Order("id ASC")
		}).
		Preload("Items.FoodProduct", vis.scope("food_products")).
		First(&list, listID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("list", listID)
	}
	if err != nil {
		return nil, err
	}
	if !list.IsPublic && list.UserID != viewerID {
		// a private list does not exist for anyone else
		return nil, notFound("list", listID)
	}
	return &list, nil
}

// ListUserLists returns ownerID's lists; other viewers only see public ones.
func (s *ListService) ListUserLists(ctx context.Context, viewerID, ownerID uint) ([]models.FoodList, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", ownerID)
	if viewerID != ownerID {
		q = q.Where("is_public = ?", true)
	}
	lists := []models.FoodList{}
	if err := q.Order("created_at DESC").Order("id DESC").Find(&lists).Error; err != nil {
		return nil, fmt.Errorf("list lists of user %d: %w", ownerID, err)
	}
	return lists, nil
}

// AddItem puts a product on the list. Without an explicit position the item
// goes after the current last one.
func (s *ListService) AddItem(ctx context.Context, userID, listID uint, req models.AddListItemRequest) (*models.FoodListItem, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	var item models.FoodListItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var list models.FoodList
		if err := ownedList(tx, userID, listID, &list); err != nil {
			return err
		}
		var product models.FoodProduct
		err := OnlyVisible.apply(tx, "food_products").Select("id").First(&product, req.FoodProductID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("product", req.FoodProductID)
		}
		if err != nil {
			return err
		}

		position := 0
		if req.Position != nil {
			position = *req.Position
		} else {
			var last int
			if err := tx.Model(&models.FoodListItem{}).Select("COALESCE(MAX(position), -1)").
				Where("food_list_id = ?", listID).Scan(&last).Error; err != nil {
				return err
			}
			position = last + 1
		}

		item = models.FoodListItem{
			FoodListID:    listID,
			FoodProductID: req.FoodProductID,
			Notes:         req.Notes,
			Position:      position,
		}
		if err := tx.Create(&item).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: product %d is already on this list", ErrDuplicate, req.FoodProductID)
			}
			return fmt.Errorf("add list item: %w", err)
		}
		return recountListItems(tx, listID)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *ListService) UpdateItem(ctx context.Context, userID, listID, itemID uint, req models.UpdateListItemRequest) (*models.FoodListItem, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	var item models.FoodListItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var list models.FoodList
		if err := ownedList(tx, userID, listID, &list); err != nil {
			return err
		}
		if err := listItem(tx, listID, itemID, &item); err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if req.Notes != nil {
			updates["notes"] = *req.Notes
			item.Notes = *req.Notes
		}
		if req.Position != nil {
			updates["position"] = *req.Position
			item.Position = *req.Position
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&item).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *ListService) RemoveItem(ctx context.Context, userID, listID, itemID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var list models.FoodList
		if err := ownedList(tx, userID, listID, &list); err != nil {
			return err
		}
		var item models.FoodListItem
		if err := listItem(tx, listID, itemID, &item); err != nil {
			return err
		}
		if err := tx.Delete(&item).Error; err != nil {
			return err
		}
		return recountListItems(tx, listID)
	})
}

// ReorderItems rewrites positions to 0..n-1 following itemIDs, which must name
// every item of the list exactly once.
func (s *ListService) ReorderItems(ctx context.Context, userID, listID uint, req models.ReorderListRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var list models.FoodList
		if err := ownedList(tx, userID, listID, &list); err != nil {
			return err
		}
		var current []uint
		if err := tx.Model(&models.FoodListItem{}).Where("food_list_id = ?", listID).Pluck("id", &current).Error; err != nil {
			return err
		}
		if !sameIDs(current, req.ItemIDs) {
			return fieldError("item_ids", "item_ids must list every item of the list exactly once")
		}
		for pos, id := range req.ItemIDs {
			if err := tx.Model(&models.FoodListItem{}).Where("id = ?", id).Update("position", pos).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func ownedList(tx *gorm.DB, userID, listID uint, list *models.FoodList) error {
	if err := lockForUpdate(tx).First(list, listID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("list", listID)
		}
		return err
	}
	if list.UserID != userID {
		return fmt.Errorf("%w: list %d belongs to another user", ErrForbidden, listID)
	}
	return nil
}

func listItem(tx *gorm.DB, listID, itemID uint, item *models.FoodListItem) error {
	err := tx.Where("food_list_id = ?", listID).First(item, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("list item", itemID)
	}
	return err
}

func sameIDs(have, want []uint) bool {
	if len(have) != len(want) {
		return false
	}
	seen := make(map[uint]bool, len(have))
	for _, id := range have {
		seen[id] = true
	}
	for _, id := range want {
		if !seen[id] {
			return false
		}
		delete(seen, id)
	}
	return true
}
