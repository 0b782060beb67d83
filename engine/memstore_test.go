package engine

import (
	"context"
	"fmt"

	"github.com/linkup-app/linkup-server/cmd/models"
)

// memStore is an in-memory EntityStore. Reads return deep copies so that
// mutator bookkeeping on loaded entities never aliases stored state.
// Individual operations can be made to fail by name through failOn.
type memStore struct {
	users  map[uint]*models.User
	posts  map[uint]*models.Post
	conns  map[uint][]uint
	nextID uint
	failOn map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[uint]*models.User),
		posts:  make(map[uint]*models.Post),
		conns:  make(map[uint][]uint),
		nextID: 1000,
		failOn: make(map[string]error),
	}
}

func (m *memStore) fail(op string) error {
	return m.failOn[op]
}

func (m *memStore) addUser(id uint, username string) *models.User {
	u := &models.User{Username: username, Email: fmt.Sprintf("%s@example.com", username)}
	u.ID = id
	m.users[id] = u
	return u
}

func (m *memStore) addPost(id, creatorID uint, caption string) *models.Post {
	p := &models.Post{Caption: caption, CreatorID: creatorID}
	p.ID = id
	m.posts[id] = p
	return p
}

func (m *memStore) connectBoth(a, b uint) {
	m.conns[a] = append(m.conns[a], b)
	m.conns[b] = append(m.conns[b], a)
}

func (m *memStore) connections(id uint) []uint {
	return m.conns[id]
}

func (m *memStore) UserByID(ctx context.Context, id uint) (*models.User, error) {
	if err := m.fail("UserByID"); err != nil {
		return nil, err
	}
	stored, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u := *stored
	u.Connections = nil
	for _, peerID := range m.conns[id] {
		if peer, ok := m.users[peerID]; ok {
			c := *peer
			u.Connections = append(u.Connections, &c)
		}
	}
	return &u, nil
}

func (m *memStore) PostByID(ctx context.Context, id uint) (*models.Post, error) {
	if err := m.fail("PostByID"); err != nil {
		return nil, err
	}
	stored, ok := m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyPost(stored), nil
}

func (m *memStore) PostsByCreator(ctx context.Context, creatorID uint) ([]models.Post, error) {
	if err := m.fail("PostsByCreator"); err != nil {
		return nil, err
	}
	var out []models.Post
	for _, stored := range m.posts {
		if stored.CreatorID == creatorID {
			out = append(out, *copyPost(stored))
		}
	}
	return out, nil
}

func (m *memStore) AllPosts(ctx context.Context) ([]models.Post, error) {
	if err := m.fail("AllPosts"); err != nil {
		return nil, err
	}
	var out []models.Post
	for _, stored := range m.posts {
		out = append(out, *copyPost(stored))
	}
	return out, nil
}

func (m *memStore) SaveUser(ctx context.Context, user *models.User) error {
	if err := m.fail("SaveUser"); err != nil {
		return err
	}
	u := *user
	u.Connections = nil
	m.users[user.ID] = &u
	return nil
}

func (m *memStore) DeleteUser(ctx context.Context, user *models.User) error {
	if err := m.fail("DeleteUser"); err != nil {
		return err
	}
	delete(m.users, user.ID)
	delete(m.conns, user.ID)
	for id, peers := range m.conns {
		m.conns[id] = removeID(peers, user.ID)
	}
	return nil
}

func (m *memStore) DeletePost(ctx context.Context, post *models.Post) error {
	if err := m.fail("DeletePost"); err != nil {
		return err
	}
	delete(m.posts, post.ID)
	return nil
}

func (m *memStore) AddConnection(ctx context.Context, userID, peerID uint) error {
	if err := m.fail("AddConnection"); err != nil {
		return err
	}
	for _, existing := range m.conns[userID] {
		if existing == peerID {
			return nil
		}
	}
	m.conns[userID] = append(m.conns[userID], peerID)
	return nil
}

func (m *memStore) RemoveConnection(ctx context.Context, userID, peerID uint) error {
	if err := m.fail("RemoveConnection"); err != nil {
		return err
	}
	m.conns[userID] = removeID(m.conns[userID], peerID)
	return nil
}

func (m *memStore) AddLike(ctx context.Context, like *models.Like) error {
	if err := m.fail("AddLike"); err != nil {
		return err
	}
	stored, ok := m.posts[like.PostID]
	if !ok {
		return ErrNotFound
	}
	m.nextID++
	like.ID = m.nextID
	stored.Likes = append([]models.Like{*like}, stored.Likes...)
	return nil
}

func (m *memStore) RemoveLike(ctx context.Context, postID, userID uint) error {
	if err := m.fail("RemoveLike"); err != nil {
		return err
	}
	stored, ok := m.posts[postID]
	if !ok {
		return ErrNotFound
	}
	for i := range stored.Likes {
		if stored.Likes[i].UserID == userID {
			stored.Likes = append(stored.Likes[:i], stored.Likes[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memStore) SaveComment(ctx context.Context, comment *models.Comment) error {
	if err := m.fail("SaveComment"); err != nil {
		return err
	}
	stored, ok := m.posts[comment.PostID]
	if !ok {
		return ErrNotFound
	}
	if comment.ID != 0 {
		for i := range stored.Comments {
			if stored.Comments[i].ID == comment.ID {
				stored.Comments[i] = *comment
				return nil
			}
		}
		return ErrNotFound
	}
	m.nextID++
	comment.ID = m.nextID
	stored.Comments = append(stored.Comments, *comment)
	return nil
}

func (m *memStore) DeleteComment(ctx context.Context, comment *models.Comment) error {
	if err := m.fail("DeleteComment"); err != nil {
		return err
	}
	stored, ok := m.posts[comment.PostID]
	if !ok {
		return ErrNotFound
	}
	for i := range stored.Comments {
		if stored.Comments[i].UserID == comment.UserID {
			stored.Comments = append(stored.Comments[:i], stored.Comments[i+1:]...)
			return nil
		}
	}
	return nil
}

func copyPost(stored *models.Post) *models.Post {
	p := *stored
	p.Comments = append([]models.Comment(nil), stored.Comments...)
	p.Likes = append([]models.Like(nil), stored.Likes...)
	return &p
}

func removeID(ids []uint, id uint) []uint {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// eventRecorder captures published change events.
type eventRecorder struct {
	events []models.ChangeEvent
}

func (r *eventRecorder) Publish(channel, action string, payload interface{}) {
	r.events = append(r.events, models.ChangeEvent{Channel: channel, Action: action, Payload: payload})
}

func (r *eventRecorder) last() *models.ChangeEvent {
	if len(r.events) == 0 {
		return nil
	}
	return &r.events[len(r.events)-1]
}

// mediaRecorder captures released media IDs and can fail a specific asset.
type mediaRecorder struct {
	released []string
	failFor  string
}

func (m *mediaRecorder) Release(mediaID string) error {
	if m.failFor != "" && m.failFor == mediaID {
		return fmt.Errorf("release %s: backend unavailable", mediaID)
	}
	m.released = append(m.released, mediaID)
	return nil
}
