package post

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/linkup-app/linkup-server/cmd/models"
	"github.com/linkup-app/linkup-server/cmd/utils"
	"github.com/linkup-app/linkup-server/engine"
	"gorm.io/gorm"
)

type Handler struct {
	db           *gorm.DB
	interactions *engine.Interactions
	pub          engine.Publisher
}

func NewHandler(db *gorm.DB, interactions *engine.Interactions, pub engine.Publisher) *Handler {
	return &Handler{
		db:           db,
		interactions: interactions,
		pub:          pub,
	}
}

// RegisterRoutes sets up all post-related routes
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/posts", h.GetPosts).Methods("GET")
	router.HandleFunc("/posts", utils.AuthMiddleware(h.CreatePost)).Methods("POST")
	router.HandleFunc("/posts/feed/{userId}", utils.AuthMiddleware(h.GetFeed)).Methods("GET")
	router.HandleFunc("/posts/user/{userId}", h.GetUserPosts).Methods("GET")
	router.HandleFunc("/posts/{id}", h.GetPost).Methods("GET")
	router.HandleFunc("/posts/{id}", utils.AuthMiddleware(h.DeletePost)).Methods("DELETE")
	router.HandleFunc("/posts/{id}/caption", utils.AuthMiddleware(h.UpdateCaption)).Methods("PATCH")
	router.HandleFunc("/posts/{id}/media", utils.AuthMiddleware(h.UpdateMedia)).Methods("PATCH")
	router.HandleFunc("/posts/{id}/like/{userId}", utils.AuthMiddleware(h.ToggleLike)).Methods("POST")
	router.HandleFunc("/posts/{id}/comments", utils.AuthMiddleware(h.UpsertComment)).Methods("POST")
	router.HandleFunc("/posts/{id}/comments/{commenterId}/owner/{ownerId}", utils.AuthMiddleware(h.RemoveCommentAsOwner)).Methods("DELETE")
	router.HandleFunc("/posts/{id}/comments/{userId}", utils.AuthMiddleware(h.RemoveOwnComment)).Methods("DELETE")
}

// GetPosts retrieves all posts with their creators, comments and likes
func (h *Handler) GetPosts(w http.ResponseWriter, r *http.Request) {
	var posts []models.Post
	result := h.db.
		Preload("Creator").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Preload("Comments.User").
		Preload("Likes", func(db *gorm.DB) *gorm.DB {
			return db.Order("likes.created_at DESC")
		}).
		Order("created_at DESC").
		Find(&posts)
	if result.Error != nil {
		http.Error(w, "Error retrieving posts", http.StatusInternalServerError)
		return
	}
	if len(posts) == 0 {
		http.Error(w, "No post found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"msg":   "All Posts",
		"posts": posts,
	})
}

// GetPost retrieves a single post by ID
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	postID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	post, err := h.loadPost(uint(postID))
	if err != nil {
		http.Error(w, "No post found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"msg":  "Post",
		"post": post,
	})
}

// GetUserPosts retrieves all posts created by one user
func (h *Handler) GetUserPosts(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["userId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var posts []models.Post
	result := h.db.
		Where("creator_id = ?", userID).
		Preload("Creator").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Preload("Comments.User").
		Preload("Likes", func(db *gorm.DB) *gorm.DB {
			return db.Order("likes.created_at DESC")
		}).
		Order("created_at DESC").
		Find(&posts)
	if result.Error != nil {
		http.Error(w, "Error retrieving posts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"msg":   "User Posts",
		"posts": posts,
	})
}

// GetFeed concatenates the posts of every user the given user is connected
// with. The feed is unpaginated.
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["userId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	actorID, err := utils.GetUserIDFromContext(r)
	if err != nil || actorID != uint(userID) {
		http.Error(w, "Can not view this feed", http.StatusUnauthorized)
		return
	}

	var user models.User
	if err := h.db.Preload("Connections").First(&user, userID).Error; err != nil {
		http.Error(w, "No user found", http.StatusNotFound)
		return
	}

	peerIDs := make([]uint, 0, len(user.Connections))
	for _, peer := range user.Connections {
		peerIDs = append(peerIDs, peer.ID)
	}

	feed := []models.Post{}
	if len(peerIDs) > 0 {
		result := h.db.
			Where("creator_id IN ?", peerIDs).
			Preload("Creator").
			Preload("Comments", func(db *gorm.DB) *gorm.DB {
				return db.Order("comments.created_at ASC")
			}).
			Preload("Comments.User").
			Preload("Likes", func(db *gorm.DB) *gorm.DB {
				return db.Order("likes.created_at DESC")
			}).
			Order("created_at DESC").
			Find(&feed)
		if result.Error != nil {
			http.Error(w, "Error retrieving feed", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"msg":   "Feed",
		"posts": feed,
	})
}

// CreatePost creates a post with an optional media attachment
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	actorID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(utils.MaxMediaSize); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	captionRequest := struct {
		Caption string `validate:"required,max=200,notnumeric"`
	}{Caption: r.FormValue("caption")}
	if err := utils.Validate.Struct(captionRequest); err != nil {
		http.Error(w, "Please enter a valid caption", http.StatusInternalServerError)
		return
	}

	post := models.Post{
		Caption:   captionRequest.Caption,
		CreatorID: actorID,
	}

	file, header, err := r.FormFile("media")
	if err == nil {
		defer file.Close()
		mediaPath, mediaID, err := utils.SaveMedia(file, header)
		if err != nil {
			http.Error(w, fmt.Sprintf("Error saving media: %v", err), http.StatusInternalServerError)
			return
		}
		post.MediaPath = mediaPath
		post.MediaID = mediaID
	}

	if err := h.db.Create(&post).Error; err != nil {
		http.Error(w, "Error creating post", http.StatusInternalServerError)
		return
	}

	h.pub.Publish(models.ChannelPosts, models.ActionGetAllPosts, &post)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"msg":  "Post Created",
		"post": post,
	})
}

// UpdateCaption replaces the caption of the caller's own post
func (h *Handler) UpdateCaption(w http.ResponseWriter, r *http.Request) {
	post, ok := h.ownPost(w, r)
	if !ok {
		return
	}

	var captionRequest struct {
		Caption string `json:"caption" validate:"required,max=200,notnumeric"`
	}
	if err := json.NewDecoder(r.Body).Decode(&captionRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.Validate.Struct(captionRequest); err != nil {
		http.Error(w, "Please enter a valid caption", http.StatusInternalServerError)
		return
	}

	post.Caption = captionRequest.Caption
	if err := h.db.Model(&models.Post{}).Where("id = ?", post.ID).Update("caption", post.Caption).Error; err != nil {
		http.Error(w, "Error updating post", http.StatusInternalServerError)
		return
	}

	h.pub.Publish(models.ChannelPosts, models.ActionGetPost, post)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"msg": "Post Caption Updated",
	})
}

// UpdateMedia replaces the media of the caller's own post, releasing the
// previous asset.
func (h *Handler) UpdateMedia(w http.ResponseWriter, r *http.Request) {
	post, ok := h.ownPost(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(utils.MaxMediaSize); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("media")
	if err != nil {
		http.Error(w, "Please provide media file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if post.MediaID != "" {
		if err := (utils.LocalMedia{}).Release(post.MediaID); err != nil {
			log.Printf("error releasing old media %s: %v", post.MediaID, err)
		}
	}

	mediaPath, mediaID, err := utils.SaveMedia(file, header)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error saving media: %v", err), http.StatusInternalServerError)
		return
	}

	post.MediaPath = mediaPath
	post.MediaID = mediaID
	if err := h.db.Model(&models.Post{}).Where("id = ?", post.ID).
		Updates(map[string]interface{}{"media_path": mediaPath, "media_id": mediaID}).Error; err != nil {
		http.Error(w, "Error updating post", http.StatusInternalServerError)
		return
	}

	h.pub.Publish(models.ChannelPosts, models.ActionGetPost, post)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"msg": "Post Media Updated",
	})
}

// DeletePost removes the caller's own post along with its likes, comments
// and media asset.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.ownPost(w, r)
	if !ok {
		return
	}

	if post.MediaID != "" {
		if err := (utils.LocalMedia{}).Release(post.MediaID); err != nil {
			log.Printf("error releasing media %s: %v", post.MediaID, err)
		}
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, post.ID).Error
	})
	if err != nil {
		http.Error(w, "Error deleting post", http.StatusInternalServerError)
		return
	}

	h.pub.Publish(models.ChannelPosts, models.ActionGetAllPosts, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"msg": "Post Deleted",
	})
}

// ToggleLike likes the post when unliked and unlikes it when liked
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	postID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}
	userID, err := strconv.ParseUint(vars["userId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	actorID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	outcome, err := h.interactions.ToggleLike(r.Context(), actorID, uint(postID), uint(userID))
	if err != nil {
		http.Error(w, err.Error(), engine.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"msg": outcome.Detail,
	})
}

// UpsertComment adds the caller's comment or replaces its text in place
func (h *Handler) UpsertComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	postID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	actorID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var commentRequest struct {
		UserID uint   `json:"user_id"`
		Text   string `json:"text" validate:"required,max=100,notnumeric"`
	}
	if err := json.NewDecoder(r.Body).Decode(&commentRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.Validate.Struct(commentRequest); err != nil {
		http.Error(w, "Please enter a valid comment", http.StatusInternalServerError)
		return
	}

	outcome, err := h.interactions.UpsertComment(r.Context(), actorID, uint(postID), commentRequest.UserID, commentRequest.Text)
	if err != nil {
		http.Error(w, err.Error(), engine.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"msg": outcome.Detail,
	})
}

// RemoveOwnComment deletes the caller's comment from the post
func (h *Handler) RemoveOwnComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	postID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}
	userID, err := strconv.ParseUint(vars["userId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	actorID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	outcome, err := h.interactions.RemoveOwnComment(r.Context(), actorID, uint(postID), uint(userID))
	if err != nil {
		http.Error(w, err.Error(), engine.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"msg": outcome.Detail,
	})
}

// RemoveCommentAsOwner lets a post creator remove any comment on their post
func (h *Handler) RemoveCommentAsOwner(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	postID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}
	commenterID, err := strconv.ParseUint(vars["commenterId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	ownerID, err := strconv.ParseUint(vars["ownerId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	actorID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	outcome, err := h.interactions.RemoveCommentAsOwner(r.Context(), actorID, uint(postID), uint(commenterID), uint(ownerID))
	if err != nil {
		http.Error(w, err.Error(), engine.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"msg": outcome.Detail,
	})
}

func (h *Handler) loadPost(postID uint) (*models.Post, error) {
	var post models.Post
	err := h.db.
		Preload("Creator").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Preload("Comments.User").
		Preload("Likes", func(db *gorm.DB) *gorm.DB {
			return db.Order("likes.created_at DESC")
		}).
		First(&post, postID).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ownPost loads the post from the route and checks the caller created it.
// On failure it writes the response itself and returns ok=false.
func (h *Handler) ownPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	vars := mux.Vars(r)
	postID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return nil, false
	}

	actorID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	post, err := h.loadPost(uint(postID))
	if err != nil {
		http.Error(w, "No post found", http.StatusNotFound)
		return nil, false
	}

	if post.CreatorID != actorID {
		http.Error(w, "Not Authorized", http.StatusForbidden)
		return nil, false
	}

	return post, true
}
