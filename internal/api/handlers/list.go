package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/internal/services"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
)

type ListHandler struct {
	listService *services.ListService
}

func NewListHandler(listService *services.ListService) *ListHandler {
	return &ListHandler{listService: listService}
}

func (h *ListHandler) CreateList(c *gin.Context) {
	var req models.FoodListRequest
	if !bindJSON(c, &req) {
		return
	}

	list, err := h.listService.CreateList(c.Request.Context(), c.GetUint("user_id"), req)
	if err != nil {
		respondError(c, "Failed to create list", err)
		return
	}

	utils.SendCreated(c, "List created successfully", list)
}

func (h *ListHandler) UpdateList(c *gin.Context) {
	listID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.FoodListRequest
	if !bindJSON(c, &req) {
		return
	}

	list, err := h.listService.UpdateList(c.Request.Context(), c.GetUint("user_id"), listID, req)
	if err != nil {
		respondError(c, "Failed to update list", err)
		return
	}

	utils.SendSuccess(c, "List updated successfully", list)
}

func (h *ListHandler) DeleteList(c *gin.Context) {
	listID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.listService.DeleteList(c.Request.Context(), c.GetUint("user_id"), listID); err != nil {
		respondError(c, "Failed to delete list", err)
		return
	}

	utils.SendSuccess(c, "List deleted successfully", nil)
}

// GetList answers anonymous callers too; private lists need their owner's token.
func (h *ListHandler) GetList(c *gin.Context) {
	listID, ok := paramID(c, "id")
	if !ok {
		return
	}

	list, err := h.listService.GetList(c.Request.Context(), c.GetUint("user_id"), listID, visibilityFor(c))
	if err != nil {
		respondError(c, "Failed to fetch list", err)
		return
	}

	utils.SendSuccess(c, "List retrieved successfully", list)
}

func (h *ListHandler) MyLists(c *gin.Context) {
	userID := c.GetUint("user_id")
	lists, err := h.listService.ListUserLists(c.Request.Context(), userID, userID)
	if err != nil {
		respondError(c, "Failed to fetch lists", err)
		return
	}

	utils.SendSuccess(c, "Lists retrieved successfully", lists)
}

func (h *ListHandler) UserLists(c *gin.Context) {
	ownerID, ok := paramID(c, "id")
	if !ok {
		return
	}

	lists, err := h.listService.ListUserLists(c.Request.Context(), c.GetUint("user_id"), ownerID)
	if err != nil {
		respondError(c, "Failed to fetch lists", err)
		return
	}

	utils.SendSuccess(c, "Lists retrieved successfully", lists)
}

func (h *ListHandler) AddItem(c *gin.Context) {
	listID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.AddListItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.listService.AddItem(c.Request.Context(), c.GetUint("user_id"), listID, req)
	if err != nil {
		respondError(c, "Failed to add item", err)
		return
	}

	utils.SendCreated(c, "Item added successfully", item)
}

func (h *ListHandler) UpdateItem(c *gin.Context) {
	listID, ok := paramID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "item_id")
	if !ok {
		return
	}
	var req models.UpdateListItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.listService.UpdateItem(c.Request.Context(), c.GetUint("user_id"), listID, itemID, req)
	if err != nil {
		respondError(c, "Failed to update item", err)
		return
	}

	utils.SendSuccess(c, "Item updated successfully", item)
}

func (h *ListHandler) RemoveItem(c *gin.Context) {
	listID, ok := paramID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "item_id")
	if !ok {
		return
	}

	if err := h.listService.RemoveItem(c.Request.Context(), c.GetUint("user_id"), listID, itemID); err != nil {
		respondError(c, "Failed to remove item", err)
		return
	}

	utils.SendSuccess(c, "Item removed successfully", nil)
}

func (h *ListHandler) ReorderItems(c *gin.Context) {
	listID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.ReorderListRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.listService.ReorderItems(c.Request.Context(), c.GetUint("user_id"), listID, req); err != nil {
		respondError(c, "Failed to reorder items", err)
		return
	}

	utils.SendSuccess(c, "Items reordered successfully", nil)
}
