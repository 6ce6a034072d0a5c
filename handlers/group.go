package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/casewise/casewise-api/auth"
	"github.com/casewise/casewise-api/models"
	"github.com/casewise/casewise-api/utils"
)

func (db *DBHandler) GetPublicGroups(w http.ResponseWriter, r *http.Request) {
	var groups []models.StudyGroup
	if err := db.Where("is_public = ?", true).Order("created_at desc").Limit(100).Find(&groups).Error; err != nil {
		log.Printf("GetPublicGroups: Failed to fetch groups: %v", err)
		http.Error(w, "Failed to fetch groups", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(groups)
}

func (db *DBHandler) GetGroupByID(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	var group models.StudyGroup
	if err := db.Preload("Owner").Preload("Members").Where("public_id = ?", groupID).First(&group).Error; err != nil {
		http.Error(w, fmt.Sprintf("Group with ID %s not found", groupID), http.StatusNotFound)
		return
	}

	auth0ID, ok := utils.GetAuth0ID(r)
	isMember := false
	if ok {
		if group.Owner.Auth0ID == auth0ID {
			isMember = true
		}
		for _, member := range group.Members {
			if member.Auth0ID == auth0ID {
				isMember = true
				break
			}
		}
	}

	if !group.IsPublic && !isMember {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	type GroupResponse struct {
		models.StudyGroup
		IsMember bool `json:"IsMember"`
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GroupResponse{StudyGroup: group, IsMember: isMember})
}

func (db *DBHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	type CreateGroupRequest struct {
		Name        string `json:"name" validate:"required,max=100"`
		Description string `json:"description" validate:"max=500"`
		IsPublic    bool   `json:"isPublic"`
	}
	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if validateRequest(w, req) {
		return
	}

	publicID, err := gonanoid.New()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	group := models.StudyGroup{
		PublicID:    publicID,
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		OwnerID:     user.ID,
		Members:     []models.User{user}, // the owner is always a member
	}

	if err := db.Create(&group).Error; err != nil {
		log.Printf("CreateGroup: Failed to create group: %v", err)
		http.Error(w, "Failed to create group", http.StatusInternalServerError)
		return
	}

	log.Printf("CreateGroup: Successfully created group publicID=%s for userID=%d", publicID, user.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(group)
}

func (db *DBHandler) UpdateGroupByID(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusForbidden)
		return
	}

	var group models.StudyGroup
	if err := db.Preload("Owner").Where("public_id = ?", groupID).First(&group).Error; err != nil {
		http.Error(w, fmt.Sprintf("Group with ID %s not found", groupID), http.StatusNotFound)
		return
	}

	if auth0ID != group.Owner.Auth0ID {
		log.Printf("UpdateGroupByID: Unauthorized update attempt by auth0ID=%s for groupID=%s", auth0ID, groupID)
		http.Error(w, "Unauthorized", http.StatusForbidden)
		return
	}

	type UpdateGroupRequest struct {
		Name        *string `json:"name,omitempty"`
		Description *string `json:"description,omitempty"`
		IsPublic    *bool   `json:"isPublic,omitempty"`
	}
	var req UpdateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name != nil {
		group.Name = *req.Name
	}
	if req.Description != nil {
		group.Description = *req.Description
	}
	if req.IsPublic != nil {
		group.IsPublic = *req.IsPublic
	}

	if err := db.Save(&group).Error; err != nil {
		log.Printf("UpdateGroupByID: Failed to update groupID=%s: %v", groupID, err)
		http.Error(w, "Failed to update group", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(group)
}

func (db *DBHandler) DeleteGroupByID(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusForbidden)
		return
	}

	var group models.StudyGroup
	if err := db.Preload("Owner").Where("public_id = ?", groupID).First(&group).Error; err != nil {
		http.Error(w, fmt.Sprintf("Group with ID %s not found", groupID), http.StatusNotFound)
		return
	}

	if auth0ID != group.Owner.Auth0ID {
		log.Printf("DeleteGroupByID: Unauthorized delete attempt by auth0ID=%s for groupID=%s", auth0ID, groupID)
		http.Error(w, "Unauthorized", http.StatusForbidden)
		return
	}

	if err := db.Model(&group).Association("Members").Clear(); err != nil {
		http.Error(w, "Failed to delete group", http.StatusInternalServerError)
		return
	}
	if err := db.Delete(&group).Error; err != nil {
		log.Printf("DeleteGroupByID: Failed to delete groupID=%s: %v", groupID, err)
		http.Error(w, "Failed to delete group", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// JoinGroup adds the caller to a public group.
func (db *DBHandler) JoinGroup(w http.ResponseWriter, r *http.Request) {
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	groupID := r.PathValue("groupID")
	var group models.StudyGroup
	if err := db.Where("public_id = ?", groupID).First(&group).Error; err != nil {
		http.Error(w, fmt.Sprintf("Group with ID %s not found", groupID), http.StatusNotFound)
		return
	}

	if !group.IsPublic {
		http.Error(w, "Group is private; join with an invite", http.StatusForbidden)
		return
	}

	if err := db.Model(&group).Association("Members").Append(&user); err != nil {
		log.Printf("JoinGroup: Failed to add userID=%d to groupID=%s: %v", user.ID, groupID, err)
		http.Error(w, "Failed to join group", http.StatusInternalServerError)
		return
	}

	log.Printf("JoinGroup: userID=%d joined groupID=%s", user.ID, groupID)
	w.WriteHeader(http.StatusNoContent)
}

func (db *DBHandler) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	groupID := r.PathValue("groupID")
	var group models.StudyGroup
	if err := db.Where("public_id = ?", groupID).First(&group).Error; err != nil {
		http.Error(w, fmt.Sprintf("Group with ID %s not found", groupID), http.StatusNotFound)
		return
	}

	if group.OwnerID == user.ID {
		http.Error(w, "The owner cannot leave their own group", http.StatusConflict)
		return
	}

	if err := db.Model(&group).Association("Members").Delete(&user); err != nil {
		log.Printf("LeaveGroup: Failed to remove userID=%d from groupID=%s: %v", user.ID, groupID, err)
		http.Error(w, "Failed to leave group", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateGroupInvite mints a signed invite token for a group the caller owns.
func (db *DBHandler) CreateGroupInvite(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var group models.StudyGroup
	if err := db.Preload("Owner").Where("public_id = ?", groupID).First(&group).Error; err != nil {
		http.Error(w, fmt.Sprintf("Group with ID %s not found", groupID), http.StatusNotFound)
		return
	}

	if auth0ID != group.Owner.Auth0ID {
		http.Error(w, "Only the owner can create invites", http.StatusForbidden)
		return
	}

	token, err := auth.CreateInviteToken(group.PublicID)
	if err != nil {
		log.Printf("CreateGroupInvite: Failed to sign invite for groupID=%s: %v", groupID, err)
		http.Error(w, "Failed to create invite", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"inviteToken": token})
}

// JoinGroupWithInvite adds the caller to the group named by a valid
// invite token, public or not.
func (db *DBHandler) JoinGroupWithInvite(w http.ResponseWriter, r *http.Request) {
	auth0ID, ok := utils.GetAuth0ID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	type JoinWithInviteRequest struct {
		InviteToken string `json:"inviteToken" validate:"required"`
	}
	var req JoinWithInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if validateRequest(w, req) {
		return
	}

	groupPublicID, err := auth.VerifyInviteToken(req.InviteToken)
	if err != nil {
		log.Printf("JoinGroupWithInvite: Invalid invite token: %v", err)
		http.Error(w, "Invalid or expired invite", http.StatusForbidden)
		return
	}

	var group models.StudyGroup
	if err := db.Where("public_id = ?", groupPublicID).First(&group).Error; err != nil {
		http.Error(w, "Group no longer exists", http.StatusNotFound)
		return
	}

	if err := db.Model(&group).Association("Members").Append(&user); err != nil {
		log.Printf("JoinGroupWithInvite: Failed to add userID=%d to groupID=%s: %v", user.ID, groupPublicID, err)
		http.Error(w, "Failed to join group", http.StatusInternalServerError)
		return
	}

	log.Printf("JoinGroupWithInvite: userID=%d joined groupID=%s via invite", user.ID, groupPublicID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(group)
}
