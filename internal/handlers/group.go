package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/roommates-api/internal/dto"
	apierrors "github.com/yukikurage/roommates-api/internal/errors"
	"github.com/yukikurage/roommates-api/internal/middleware"
	"github.com/yukikurage/roommates-api/internal/services"
)

// GroupHandler serves the caller's group and its membership lifecycle
type GroupHandler struct {
	groupService *services.GroupService
}

func NewGroupHandler(groupService *services.GroupService) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
	}
}

// GetGroup returns the caller's group with a repaired owner
func (h *GroupHandler) GetGroup(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	view, err := h.groupService.DescribeGroup(userID)
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, toGroupDetail(view, userID))
}

// CreateGroup creates a group owned by the caller
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateGroupRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	view, err := h.groupService.CreateGroup(userID, req.Name)
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toGroupDetail(view, userID))
}

// UpdateGroup renames the group
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UpdateGroupRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	view, err := h.groupService.RenameGroup(userID, req.Name)
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, toGroupDetail(view, userID))
}

// JoinGroup adds the caller to a group via join code
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type JoinRequest struct {
		JoinCode string `json:"join_code" binding:"required"`
	}

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	view, err := h.groupService.JoinGroup(userID, req.JoinCode)
	if err != nil {
		if errors.Is(err, services.ErrGroupNotFound) {
			apierrors.NotFound(c, "Invalid join code")
			return
		}
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, toGroupDetail(view, userID))
}

// LeaveGroup removes the caller from their group
func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.groupService.LeaveGroup(userID); err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Left group successfully",
	})
}

// RemoveMember removes a member from the group
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	targetID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.groupService.RemoveMember(userID, targetID); err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed successfully",
	})
}

// TransferOwnership makes another member the owner
func (h *GroupHandler) TransferOwnership(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type TransferRequest struct {
		UserID uint64 `json:"user_id" binding:"required"`
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	view, err := h.groupService.TransferOwnership(userID, req.UserID)
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, toGroupDetail(view, userID))
}

// RegenerateJoinCode replaces the group's join code
func (h *GroupHandler) RegenerateJoinCode(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	view, err := h.groupService.RegenerateJoinCode(userID)
	if err != nil {
		respondGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, toGroupDetail(view, userID))
}

func toGroupDetail(view *services.GroupView, userID uint64) dto.GroupDetailDTO {
	return dto.ToGroupDetailDTO(view.Group, view.Owner, view.Members, view.Role(userID), view.Degraded)
}

func respondGroupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrGroupNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrMemberNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidGroupName),
		errors.Is(err, services.ErrCannotRemoveYourself),
		errors.Is(err, services.ErrNotGroupMember):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNotGroupOwner):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrAlreadyInGroup),
		errors.Is(err, services.ErrJoinCodeExhausted),
		errors.Is(err, services.ErrOwnershipChanged):
		apierrors.Conflict(c, err.Error())
	default:
		respondServiceError(c, err)
	}
}
