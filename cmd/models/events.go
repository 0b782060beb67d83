package models

// Change-event channels consumed by connected clients.
const (
	ChannelUsers = "users"
	ChannelPosts = "posts"
)

// Action tags carried by change events.
const (
	ActionGetUser            = "GetUser"
	ActionGetAllPosts        = "GetAllPosts"
	ActionGetPost            = "GetPost"
	ActionConnectOrBlockUser = "ConnectOrBlockUser"
)

// ChangeEvent is the envelope published after every successful mutation.
type ChangeEvent struct {
	Channel string      `json:"channel"`
	Action  string      `json:"action"`
	Payload interface{} `json:"data"`
}

// GraphChange is the payload of a users/ConnectOrBlockUser event: snapshots
// of both sides of the affected pair.
type GraphChange struct {
	User      *User `json:"user"`
	OtherUser *User `json:"otherUser"`
}
