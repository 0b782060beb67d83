package notification

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/linkup-app/linkup-server/cmd/models"
	"github.com/linkup-app/linkup-server/cmd/utils"
	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	"gorm.io/gorm"
)

// Handler owns the push-device registry and delivers push notifications
// through the Expo push service.
type Handler struct {
	db         *gorm.DB
	expoClient *expo.PushClient
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{
		db:         db,
		expoClient: expo.NewPushClient(nil),
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/devices", utils.AuthMiddleware(h.RegisterDevice)).Methods("POST")
	router.HandleFunc("/users/{userId}/devices", utils.AuthMiddleware(h.GetUserDevices)).Methods("GET")
}

// RegisterDevice stores (or refreshes) an expo push token for the acting
// user.
func (h *Handler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var device models.Device
	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	device.UserID = userID

	if device.Token == "" {
		http.Error(w, "Token is required", http.StatusBadRequest)
		return
	}
	if _, err := expo.NewExponentPushToken(device.Token); err != nil {
		http.Error(w, "Invalid Expo push token format", http.StatusBadRequest)
		return
	}

	var existing models.Device
	result := h.db.Where("token = ? AND user_id = ?", device.Token, userID).First(&existing)
	if result.Error == nil {
		existing.UpdatedAt = time.Now()
		existing.DeviceType = device.DeviceType
		existing.DeviceName = device.DeviceName
		if err := h.db.Save(&existing).Error; err != nil {
			http.Error(w, "Error updating device", http.StatusInternalServerError)
			return
		}
		device = existing
	} else {
		if err := h.db.Create(&device).Error; err != nil {
			http.Error(w, "Error creating device", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Device registered successfully",
		"device":  device,
	})
}

// GetUserDevices lists the registered devices of a user.
func (h *Handler) GetUserDevices(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["userId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var devices []models.Device
	if err := h.db.Where("user_id = ?", userID).Find(&devices).Error; err != nil {
		http.Error(w, "Error retrieving devices", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(devices)
}

// PushToUser delivers a notification to every device the user registered.
// Errors are logged, never returned: callers fire and forget.
func (h *Handler) PushToUser(userID uint, title, body string) {
	var devices []models.Device
	if err := h.db.Where("user_id = ?", userID).Find(&devices).Error; err != nil {
		log.Printf("error retrieving devices for user %d: %v", userID, err)
		return
	}
	if len(devices) == 0 {
		return
	}

	var tokens []string
	for _, device := range devices {
		tokens = append(tokens, device.Token)
	}

	err := h.sendExpoNotification(tokens, title, body)

	status := "sent"
	if err != nil {
		status = "failed"
		log.Printf("error pushing notification to user %d: %v", userID, err)
	}

	history := models.NotificationHistory{
		UserID: userID,
		Title:  title,
		Body:   body,
		Tokens: tokens,
		Status: status,
		SentAt: time.Now(),
	}
	if err := h.db.Create(&history).Error; err != nil {
		log.Printf("error creating notification history: %v", err)
	}
}

func (h *Handler) sendExpoNotification(tokenStrings []string, title, body string) error {
	var validTokens []expo.ExponentPushToken
	for _, tokenString := range tokenStrings {
		pushToken, err := expo.NewExponentPushToken(tokenString)
		if err != nil {
			log.Printf("Invalid push token format %s: %v", tokenString, err)
			continue
		}
		validTokens = append(validTokens, pushToken)
	}

	if len(validTokens) == 0 {
		return fmt.Errorf("no valid push tokens found")
	}

	pushMessage := &expo.PushMessage{
		To:       validTokens,
		Body:     body,
		Title:    title,
		Sound:    "default",
		Priority: expo.DefaultPriority,
	}

	response, err := h.expoClient.Publish(pushMessage)
	if err != nil {
		return fmt.Errorf("failed to publish notification: %v", err)
	}
	if validationErr := response.ValidateResponse(); validationErr != nil {
		return validationErr
	}
	return nil
}
