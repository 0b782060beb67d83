package engine

import (
	"context"

	"github.com/linkup-app/linkup-server/cmd/models"
)

// Graph applies connect and block operations to a pair of users, keeping
// their connection sets symmetric.
type Graph struct {
	store EntityStore
	pub   Publisher
}

func NewGraph(store EntityStore, pub Publisher) *Graph {
	return &Graph{store: store, pub: pub}
}

// Connect inserts each user into the other's connection set. An existing
// connection in either direction makes the call a no-op, still reported as
// success. Only the requester may initiate on their own behalf.
func (g *Graph) Connect(ctx context.Context, actorID, requesterID, targetID uint) (Outcome, error) {
	requester, target, err := g.loadPair(ctx, requesterID, targetID)
	if err != nil {
		return Outcome{}, err
	}
	if requesterID == targetID {
		return Outcome{}, validation("you can not connect with yourself")
	}
	if actorID != requesterID {
		return Outcome{}, unauthorized("can not connect user")
	}

	if requester.Connected(targetID) || target.Connected(requesterID) {
		g.publish(requester, target)
		return noOp("already connected"), nil
	}

	if err := g.store.AddConnection(ctx, requesterID, targetID); err != nil {
		return Outcome{}, storage(err, "error saving connection")
	}
	if err := g.store.AddConnection(ctx, targetID, requesterID); err != nil {
		return Outcome{}, storage(err, "error saving connection")
	}
	requester.Connections = append(requester.Connections, snapshot(target))
	target.Connections = append(target.Connections, snapshot(requester))

	g.publish(requester, target)
	return applied("new connection"), nil
}

// Block removes each user from the other's connection set. The pair counts
// as connected when either side holds the other, and removal runs against
// both sides independently, so an asymmetric pair left by an earlier fault
// is healed rather than half-fixed. Blocking a user you are not connected
// with is a no-op success.
func (g *Graph) Block(ctx context.Context, actorID, requesterID, targetID uint) (Outcome, error) {
	requester, target, err := g.loadPair(ctx, requesterID, targetID)
	if err != nil {
		return Outcome{}, err
	}
	if requesterID == targetID {
		return Outcome{}, validation("you can not block yourself")
	}
	if actorID != requesterID {
		return Outcome{}, unauthorized("can not block user")
	}

	if !requester.Connected(targetID) && !target.Connected(requesterID) {
		g.publish(requester, target)
		return noOp("nothing to block"), nil
	}

	if err := g.store.RemoveConnection(ctx, requesterID, targetID); err != nil {
		return Outcome{}, storage(err, "error removing connection")
	}
	if err := g.store.RemoveConnection(ctx, targetID, requesterID); err != nil {
		return Outcome{}, storage(err, "error removing connection")
	}
	requester.Connections = dropPeer(requester.Connections, targetID)
	target.Connections = dropPeer(target.Connections, requesterID)

	g.publish(requester, target)
	return applied("blocked"), nil
}

func (g *Graph) loadPair(ctx context.Context, requesterID, targetID uint) (*models.User, *models.User, error) {
	requester, err := g.store.UserByID(ctx, requesterID)
	if err != nil {
		return nil, nil, lookupErr(err, "user")
	}
	target, err := g.store.UserByID(ctx, targetID)
	if err != nil {
		return nil, nil, lookupErr(err, "user")
	}
	return requester, target, nil
}

func (g *Graph) publish(requester, target *models.User) {
	g.pub.Publish(models.ChannelUsers, models.ActionConnectOrBlockUser, models.GraphChange{
		User:      requester,
		OtherUser: target,
	})
}

// snapshot copies the identity fields of a user. Connection entries must not
// point back at fully loaded peers or the event payload would cycle.
func snapshot(u *models.User) *models.User {
	return &models.User{
		Model:      u.Model,
		Username:   u.Username,
		Email:      u.Email,
		ImagePath:  u.ImagePath,
		Profession: u.Profession,
		Bio:        u.Bio,
		Location:   u.Location,
	}
}

// dropPeer removes the first entry matching peerID.
func dropPeer(conns []*models.User, peerID uint) []*models.User {
	for i, peer := range conns {
		if peer.ID == peerID {
			return append(conns[:i], conns[i+1:]...)
		}
	}
	return conns
}
