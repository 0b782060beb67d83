package user

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gopkg.in/gomail.v2"

	stream_chat "github.com/GetStream/stream-chat-go/v5"
	"github.com/gorilla/mux"
	"github.com/linkup-app/linkup-server/cmd/models"
	"github.com/linkup-app/linkup-server/cmd/utils"
	"github.com/linkup-app/linkup-server/engine"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Pusher delivers a push notification to one user, fire-and-forget.
type Pusher interface {
	PushToUser(userID uint, title, body string)
}

type Handler struct {
	db      *gorm.DB
	graph   *engine.Graph
	cascade *engine.Cascade
	pub     engine.Publisher
	pusher  Pusher
}

func NewHandler(db *gorm.DB, graph *engine.Graph, cascade *engine.Cascade, pub engine.Publisher, pusher Pusher) *Handler {
	return &Handler{
		db:      db,
		graph:   graph,
		cascade: cascade,
		pub:     pub,
		pusher:  pusher,
	}
}

// RegisterRoutes sets up all user-related routes
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/register", h.HandleRegister).Methods("POST")
	router.HandleFunc("/login", h.handleLogin).Methods("POST")
	router.HandleFunc("/user/verify", h.verifyUser).Methods("POST")

	router.HandleFunc("/users", h.GetUsers).Methods("GET")
	router.HandleFunc("/users/username/{username}", h.GetUsersByUsername).Methods("GET")
	router.HandleFunc("/users/{id}", h.GetUser).Methods("GET")
	router.HandleFunc("/users/{id}", utils.AuthMiddleware(h.DeleteUser)).Methods("DELETE")
	router.HandleFunc("/users/{id}/image", utils.AuthMiddleware(h.UpdateImage)).Methods("POST")
	router.HandleFunc("/users/{id}/about", utils.AuthMiddleware(h.WriteAbout)).Methods("PATCH")
	router.HandleFunc("/users/{id}/about", utils.AuthMiddleware(h.DeleteAbout)).Methods("DELETE")
	router.HandleFunc("/users/{id}/connect/{peerId}", utils.AuthMiddleware(h.ConnectUser)).Methods("POST")
	router.HandleFunc("/users/{id}/block/{peerId}", utils.AuthMiddleware(h.BlockUser)).Methods("POST")

	router.HandleFunc("/media/{filename}", h.ServeMedia).Methods("GET")
}

func (h *Handler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	filename := vars["filename"]

	// Basic security check for directory traversal
	if containsDotDot(filename) {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	mediaPath := filepath.Join(utils.MediaPath, filepath.Clean(filename))

	if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
		http.Error(w, "Media not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Content-Type", getContentType(mediaPath))

	http.ServeFile(w, r, mediaPath)
}

func containsDotDot(v string) bool {
	if !filepath.IsAbs(v) {
		v = filepath.Clean(filepath.Join("/", v))
	}
	return filepath.Clean(v) != v
}

func getContentType(filename string) string {
	ext := filepath.Ext(filename)
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var registerRequest struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&registerRequest); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusBadRequest)
		return
	}
	if registerRequest.Username == "" || registerRequest.Email == "" || registerRequest.Password == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	// Username uniqueness is an application-level check, not a storage
	// constraint.
	var existingUser models.User
	if result := h.db.Where("username = ? OR email = ?", registerRequest.Username, registerRequest.Email).First(&existingUser); !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		if result.Error != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}

		var errorMessage string
		if existingUser.Username == registerRequest.Username {
			errorMessage = "Username is already in use"
		} else {
			errorMessage = "Email is already in use"
		}
		log.Printf("Registration attempt with duplicate %s", errorMessage)
		http.Error(w, errorMessage, http.StatusConflict)
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(registerRequest.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Error hashing password", http.StatusInternalServerError)
		return
	}

	verificationCode := fmt.Sprintf("%06d", rand.Intn(1000000))

	user := models.User{
		Username:              registerRequest.Username,
		Email:                 registerRequest.Email,
		PasswordHash:          string(passwordHash),
		EmailVerificationCode: verificationCode,
		VerificationExpiry:    time.Now().Add(15 * time.Minute),
	}

	if err := h.db.Create(&user).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			log.Printf("Unique constraint violation during user creation: %v", err)
			http.Error(w, "Username or email is already in use", http.StatusConflict)
			return
		}
		http.Error(w, "Error registering user", http.StatusInternalServerError)
		return
	}

	go func() {
		if err := sendVerificationEmail(user.Email, verificationCode); err != nil {
			log.Printf("Error sending verification email: %v", err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "User registered successfully. Please check your email for verification code.",
		"user_id": user.ID,
	})
}

// sendVerificationEmail sends a verification email with the 6-digit code
func sendVerificationEmail(email, code string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPort := os.Getenv("SMTP_PORT")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")

	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Email Verification Code")
	m.SetBody("text/plain", fmt.Sprintf("Your verification code is: %s. Ignore this email if you did not request a verification code.", code))

	port, err := strconv.Atoi(smtpPort)
	if err != nil {
		return fmt.Errorf("invalid SMTP port: %v", err)
	}
	d := gomail.NewDialer(smtpHost, port, smtpUser, smtpPass)

	return d.DialAndSend(m)
}

func (h *Handler) verifyUser(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", request.Email).First(&user).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	if user.EmailVerificationCode != request.Code || time.Now().After(user.VerificationExpiry) {
		http.Error(w, "Invalid or expired verification code", http.StatusUnauthorized)
		return
	}

	user.EmailVerified = true
	user.EmailVerificationCode = ""
	user.VerificationExpiry = time.Time{}

	if err := h.db.Save(&user).Error; err != nil {
		http.Error(w, "Error updating user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Email verified successfully",
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&loginRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var user models.User
	result := h.db.Where("email = ?", loginRequest.Email).First(&user)
	if result.Error != nil {
		http.Error(w, "User not found", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(loginRequest.Password)); err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	accessToken, err := generateJWT(user.ID, 7500)
	if err != nil {
		http.Error(w, "Error generating access token", http.StatusInternalServerError)
		return
	}

	// Chat token so the client can open its messaging session.
	API_KEY := os.Getenv("STREAM_API_KEY")
	API_SECRET := os.Getenv("STREAM_API_SECRET")
	streamClient, err := stream_chat.NewClient(API_KEY, API_SECRET)
	if err != nil {
		http.Error(w, "Error initializing Stream client", http.StatusInternalServerError)
		return
	}

	userIDStr := fmt.Sprintf("%d", user.ID)
	streamToken, err := streamClient.CreateToken(userIDStr, time.Now().Add(time.Hour*24*365))
	if err != nil {
		http.Error(w, "Error generating Stream token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":      "Login successful",
		"access_token": accessToken,
		"user_id":      user.ID,
		"stream_token": streamToken,
	})
}

func generateJWT(userID uint, expirationMinutes int) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expirationMinutes) * time.Minute)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("SECRET_KEY")))
}

// GetUsers retrieves all users
func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	result := h.db.Find(&users)
	if result.Error != nil {
		http.Error(w, "Error retrieving users", http.StatusInternalServerError)
		return
	}
	if len(users) == 0 {
		http.Error(w, "No user found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"msg":   "All Users",
		"users": users,
	})
}

// GetUser retrieves a specific user by ID
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := h.db.Preload("Connections").Preload("Posts").First(&user, userID).Error; err != nil {
		http.Error(w, "No user found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"msg":  "User",
		"user": user,
	})
}

// GetUsersByUsername retrieves users matching a username
func (h *Handler) GetUsersByUsername(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var users []models.User
	if err := h.db.Where("username = ?", vars["username"]).Find(&users).Error; err != nil {
		http.Error(w, "Error retrieving users", http.StatusInternalServerError)
		return
	}
	if len(users) == 0 {
		http.Error(w, "No user found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"msg":   "Users by Username",
		"users": users,
	})
}

// UpdateImage replaces the user's profile picture, releasing the previous
// asset.
func (h *Handler) UpdateImage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	actorID, err := utils.GetUserIDFromContext(r)
	if err != nil || actorID != uint(userID) {
		http.Error(w, "Can't update profile picture", http.StatusForbidden)
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		http.Error(w, "No user found", http.StatusNotFound)
		return
	}

	if err := r.ParseMultipartForm(utils.MaxMediaSize); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "Please provide image file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if user.ImageID != "" {
		if err := (utils.LocalMedia{}).Release(user.ImageID); err != nil {
			log.Printf("error releasing old profile image %s: %v", user.ImageID, err)
		}
	}

	imagePath, imageID, err := utils.SaveMedia(file, header)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error saving image: %v", err), http.StatusInternalServerError)
		return
	}

	user.ImagePath = imagePath
	user.ImageID = imageID
	if err := h.db.Save(&user).Error; err != nil {
		http.Error(w, "Error updating user", http.StatusInternalServerError)
		return
	}

	h.pub.Publish(models.ChannelUsers, models.ActionGetUser, &user)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"msg": "User Image Updated",
	})
}

// WriteAbout updates the optional profile fields.
func (h *Handler) WriteAbout(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	actorID, err := utils.GetUserIDFromContext(r)
	if err != nil || actorID != uint(userID) {
		http.Error(w, "Not Authorized", http.StatusForbidden)
		return
	}

	var aboutRequest struct {
		Profession string `json:"profession" validate:"omitempty,max=50,notnumeric"`
		Bio        string `json:"bio" validate:"omitempty,max=100,notnumeric"`
		Location   string `json:"location" validate:"omitempty,max=50,notnumeric"`
	}
	if err := json.NewDecoder(r.Body).Decode(&aboutRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.Validate.Struct(aboutRequest); err != nil {
		http.Error(w, "Please enter a valid about section", http.StatusInternalServerError)
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		http.Error(w, "No user found", http.StatusNotFound)
		return
	}

	if aboutRequest.Profession != "" {
		user.Profession = aboutRequest.Profession
	}
	if aboutRequest.Bio != "" {
		user.Bio = aboutRequest.Bio
	}
	if aboutRequest.Location != "" {
		user.Location = aboutRequest.Location
	}

	if err := h.db.Save(&user).Error; err != nil {
		http.Error(w, "Error updating user", http.StatusInternalServerError)
		return
	}

	h.pub.Publish(models.ChannelUsers, models.ActionGetUser, &user)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"msg": "User Bio updated",
	})
}

// DeleteAbout clears the optional profile fields.
func (h *Handler) DeleteAbout(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	actorID, err := utils.GetUserIDFromContext(r)
	if err != nil || actorID != uint(userID) {
		http.Error(w, "Not Authorized", http.StatusForbidden)
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		http.Error(w, "No user found", http.StatusNotFound)
		return
	}

	user.Profession = ""
	user.Bio = ""
	user.Location = ""

	if err := h.db.Save(&user).Error; err != nil {
		http.Error(w, "Error updating user", http.StatusInternalServerError)
		return
	}

	h.pub.Publish(models.ChannelUsers, models.ActionGetUser, &user)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"msg": "User Bio Deleted",
	})
}

// ConnectUser forms a bidirectional connection between the acting user and
// the target.
func (h *Handler) ConnectUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	peerID, err := strconv.ParseUint(vars["peerId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	actorID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	outcome, err := h.graph.Connect(r.Context(), actorID, uint(userID), uint(peerID))
	if err != nil {
		http.Error(w, err.Error(), engine.HTTPStatus(err))
		return
	}

	msg := "You already connected with this user"
	if outcome.Applied {
		msg = "You made a new connection"
		if h.pusher != nil {
			go h.pusher.PushToUser(uint(peerID), "New connection", "Someone just connected with you")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"msg": msg,
	})
}

// BlockUser breaks the connection between the acting user and the target.
func (h *Handler) BlockUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	peerID, err := strconv.ParseUint(vars["peerId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	actorID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	outcome, err := h.graph.Block(r.Context(), actorID, uint(userID), uint(peerID))
	if err != nil {
		http.Error(w, err.Error(), engine.HTTPStatus(err))
		return
	}

	msg := "You are not connected with this user"
	if outcome.Applied {
		msg = "You blocked a user"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"msg": msg,
	})
}

// DeleteUser removes the account and every trace of it: owned posts and
// their media, likes and comments on other posts, and the entry in every
// peer's connection list.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	actorID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.cascade.DeleteUser(r.Context(), actorID, uint(userID)); err != nil {
		http.Error(w, err.Error(), engine.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"msg": "User Deleted",
	})
}
