package session

import (
	"fmt"

	"logicgrid/core"
	"logicgrid/internal/protocol"
)

// handle applies one inbound message from sessionID. It is only ever called
// from Run's goroutine, so it may freely read and mutate d.scene.
func (d *Dispatcher) handle(sessionID string, msg protocol.Message) {
	origin := d.sessions[sessionID]
	if origin == nil {
		return
	}

	switch msg.Action {
	case protocol.ActionRequestPlaceBlocks:
		d.handlePlaceBlocks(origin, msg.PlaceBlocks)
	case protocol.ActionRequestUpdateBlocks:
		d.handleUpdateBlocks(origin, msg.UpdateBlocks)
	case protocol.ActionRequestRemoveBlocks:
		d.handleRemoveBlocks(origin, msg.RemoveBlocks)
	case protocol.ActionClientJoin:
		d.handleJoin(origin, msg.Join)
	case protocol.ActionClientLeave:
		d.unregisterLocked(origin.ID)
	case protocol.ActionNothing, protocol.ActionResponse:
		// recorded via logs only; no state change
		d.log.WithField("session", sessionID).Debug("received non-mutating message")
	case protocol.ActionServerKick, protocol.ActionServerMetadata:
		d.log.WithField("session", sessionID).Warn("client sent a server-only message, ignoring")
	default:
		d.log.WithField("session", sessionID).Warn("unknown action, discarding")
	}
}

func toCoord(p [3]int32) core.Coord { return core.Coord{X: p[0], Y: p[1], Z: p[2]} }

func fromCoord(c core.Coord) [3]int32 { return [3]int32{c.X, c.Y, c.Z} }

func (d *Dispatcher) handlePlaceBlocks(origin *Session, requests []protocol.PlaceBlock) {
	assigned := make([]protocol.PlaceBlock, 0, len(requests))
	for _, req := range requests {
		if req.ID != nil {
			origin.Send(protocol.ResponseError("place block: did not expect instance id"))
			return
		}
		id, err := d.scene.AddBlock(req.Data, toCoord(req.Position), req.Rotation)
		if err != nil {
			origin.Send(protocol.ResponseError(fmt.Sprintf("place block: %v", err)))
			return
		}
		u32 := uint32(id)
		assigned = append(assigned, protocol.PlaceBlock{ID: &u32, Position: req.Position, Rotation: req.Rotation, Data: req.Data})
	}
	origin.Send(protocol.ResponseOK())
	d.broadcast(protocol.RequestPlaceBlocks(assigned))
}

func (d *Dispatcher) handleUpdateBlocks(origin *Session, requests []protocol.UpdateBlock) {
	for _, req := range requests {
		id := core.InstanceID(req.ID)
		current, ok := d.scene.GetBlock(id)
		if !ok {
			origin.Send(protocol.ResponseError(fmt.Sprintf("update block %d: not found", req.ID)))
			return
		}

		switch {
		case req.Position != nil || req.Rotation != nil:
			pos := current.Position
			if req.Position != nil {
				pos = toCoord(*req.Position)
			}
			orient := current.Orient
			if req.Rotation != nil {
				orient = *req.Rotation
			}
			block := current.Block
			if req.Data != nil {
				block = *req.Data
			}
			if err := d.scene.ReplaceBlock(id, block, pos, orient); err != nil {
				origin.Send(protocol.ResponseError(fmt.Sprintf("update block %d: %v", req.ID, err)))
				return
			}
		case req.Data != nil:
			if _, err := d.scene.UpdateBlock(id, *req.Data); err != nil {
				origin.Send(protocol.ResponseError(fmt.Sprintf("update block %d: %v", req.ID, err)))
				return
			}
		default:
			origin.Send(protocol.ResponseError(fmt.Sprintf("update block %d: neither placement nor data given", req.ID)))
			return
		}
	}
	origin.Send(protocol.ResponseOK())
	d.broadcast(protocol.RequestUpdateBlocks(requests))
}

func (d *Dispatcher) handleRemoveBlocks(origin *Session, requests []protocol.RemoveBlock) {
	for _, req := range requests {
		if _, err := d.scene.RemoveBlock(core.InstanceID(req.ID)); err != nil {
			origin.Send(protocol.ResponseError(fmt.Sprintf("remove block %d: %v", req.ID, err)))
			return
		}
	}
	origin.Send(protocol.ResponseOK())
	d.broadcast(protocol.RequestRemoveBlocks(requests))
}

func (d *Dispatcher) handleJoin(origin *Session, client protocol.Client) {
	origin.Client = &client
	d.log.WithField("name", client.Name).Info("client joined")
	d.publishStatus()

	world := make([]protocol.PlaceBlock, 0, len(d.scene.Blocks()))
	for id, p := range d.scene.Blocks() {
		u32 := uint32(id)
		world = append(world, protocol.PlaceBlock{ID: &u32, Position: fromCoord(p.Position), Rotation: p.Orient, Data: p.Block})
	}
	origin.Send(protocol.RequestPlaceBlocks(world))
}

// unregisterLocked removes a session from within the dispatcher goroutine
// (as opposed to via the unregister channel, used by the listener).
func (d *Dispatcher) unregisterLocked(id string) {
	if s, ok := d.sessions[id]; ok {
		s.close()
		delete(d.sessions, id)
		d.publishStatus()
	}
}
