package chat

import (
	"context"

	"github.com/pulsechat/gateway/logger"
)

// Availability values written on lifecycle transitions. Explicit
// status_change events may carry any application-defined string.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// PresenceManager translates connect/disconnect/status-change into a
// persisted availability update followed by a presence broadcast. The
// store write always goes first so observers that react to the event
// read final state; a failed write is logged and never blocks the
// broadcast or the lifecycle transition that triggered it.
type PresenceManager struct {
	store PresenceStore
	reg   *Registry
}

func NewPresenceManager(store PresenceStore, reg *Registry) *PresenceManager {
	return &PresenceManager{store: store, reg: reg}
}

func (p *PresenceManager) SetOnline(ctx context.Context, userID string) {
	p.setStatus(ctx, userID, StatusOnline)
}

func (p *PresenceManager) SetOffline(ctx context.Context, userID string) {
	p.setStatus(ctx, userID, StatusOffline)
}

func (p *PresenceManager) SetStatus(ctx context.Context, userID, status string) {
	p.setStatus(ctx, userID, status)
}

func (p *PresenceManager) setStatus(ctx context.Context, userID, status string) {
	if err := p.store.UpdateUserAvailability(ctx, userID, status); err != nil {
		logger.Errorf("[presence] persist user=%s status=%s err=%v", userID, status, err)
	}
	p.reg.Broadcast(BuildUserStatus(userID, status), userID)
}
