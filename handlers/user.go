package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/casewise/casewise-api/models"
	"github.com/casewise/casewise-api/utils"
)

// GetUserProfile returns a user's public profile with content counts.
func (db *DBHandler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	nickname := r.PathValue("nickname")
	if nickname == "" {
		http.Error(w, "Nickname is required", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := db.Where("nickname = ?", nickname).First(&user).Error; err != nil {
		log.Printf("GetUserProfile: User not found for nickname=%s: %v", nickname, err)
		http.Error(w, fmt.Sprintf("User not found for nickname=%s", nickname), http.StatusNotFound)
		return
	}

	auth0ID, ok := utils.GetAuth0ID(r)
	isSelf := ok && user.Auth0ID == auth0ID

	countQuery := func(model interface{}) int64 {
		var count int64
		query := db.Model(model).Where("user_id = ?", user.ID)
		if !isSelf {
			query = query.Where("is_public = ?", true)
		}
		if err := query.Count(&count).Error; err != nil {
			log.Printf("GetUserProfile: Failed to count content for userID=%d: %v", user.ID, err)
		}
		return count
	}

	type ProfileResponse struct {
		Nickname      string `json:"nickname"`
		IsSelf        bool   `json:"isSelf"`
		CategoryCount int64  `json:"categoryCount"`
		CaseCount     int64  `json:"caseCount"`
		QuizCount     int64  `json:"quizCount"`
	}

	response := ProfileResponse{
		Nickname:      user.Nickname,
		IsSelf:        isSelf,
		CategoryCount: countQuery(&models.Category{}),
		CaseCount:     countQuery(&models.Case{}),
		QuizCount:     countQuery(&models.Quiz{}),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
