package session

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"logicgrid/core"
	"logicgrid/internal/protocol"
	"logicgrid/internal/save"
)

// Status is the lock-free snapshot the status HTTP endpoint reads; it is
// published by the dispatcher after every tick and membership change so no
// other goroutine ever touches the Scene.
type Status struct {
	ServerID       string    `json:"server_id"`
	Ticks          uint32    `json:"ticks"`
	Clients        int       `json:"clients"`
	ConnectedSince time.Time `json:"connected_since"`
}

// Config bundles the tunables a Dispatcher needs beyond the Scene itself.
type Config struct {
	TickInterval     time.Duration
	AutosaveInterval time.Duration
	SavePath         string
}

type inboundMsg struct {
	sessionID string
	msg       protocol.Message
}

// Dispatcher is the single authoritative owner of a Scene. It is the only
// goroutine that ever reads or mutates it; every other goroutine in the
// process only ever touches channels or the published Status.
type Dispatcher struct {
	cfg   Config
	scene *core.Scene
	log   *logrus.Logger

	sessions map[string]*Session

	inbound    chan inboundMsg
	register   chan *Session
	unregister chan string
	shutdown   chan struct{}
	done       chan struct{}

	status    atomic.Value // Status
	startedAt time.Time
	serverID  string
}

// NewDispatcher constructs a Dispatcher around scene. Run must be called to
// start processing. Each Dispatcher gets a fresh random ServerID so status
// responses across a process restart are distinguishable; the id is not
// attached to the dispatcher's log lines.
func NewDispatcher(scene *core.Scene, cfg Config, log *logrus.Logger) *Dispatcher {
	d := &Dispatcher{
		cfg:        cfg,
		scene:      scene,
		log:        log,
		sessions:   make(map[string]*Session),
		inbound:    make(chan inboundMsg, 256),
		register:   make(chan *Session),
		unregister: make(chan string),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		startedAt:  time.Now(),
		serverID:   uuid.NewString(),
	}
	d.status.Store(Status{ServerID: d.serverID, ConnectedSince: d.startedAt})
	return d
}

// Status returns the most recently published snapshot.
func (d *Dispatcher) Status() Status {
	return d.status.Load().(Status)
}

// Run processes registrations, inbound messages, and timers until Shutdown
// is called. It blocks until shutdown completes (final save included), so
// callers typically invoke it in its own goroutine.
func (d *Dispatcher) Run() {
	defer close(d.done)

	tickTicker := time.NewTicker(d.cfg.TickInterval)
	defer tickTicker.Stop()
	autosaveTicker := time.NewTicker(d.cfg.AutosaveInterval)
	defer autosaveTicker.Stop()

	for {
		select {
		case <-d.shutdown:
			d.onShutdown()
			return

		case s := <-d.register:
			d.sessions[s.ID] = s
			d.publishStatus()
			d.log.WithField("session", s.ID).Info("session connected")

		case id := <-d.unregister:
			if s, ok := d.sessions[id]; ok {
				s.close()
				delete(d.sessions, id)
				d.publishStatus()
				d.log.WithField("session", id).Info("session disconnected")
			}

		case im := <-d.inbound:
			d.handle(im.sessionID, im.msg)

		case <-tickTicker.C:
			changed := d.scene.SimulateTick()
			d.publishStatus()
			d.broadcastTick(changed)

		case <-autosaveTicker.C:
			if err := save.Save(d.scene, d.cfg.SavePath); err != nil {
				d.log.WithError(err).Error("autosave failed")
			}
		}
	}
}

// Shutdown requests a graceful stop: every session is kicked, a grace period
// elapses, a final save is performed, and Run returns.
func (d *Dispatcher) Shutdown() {
	close(d.shutdown)
	<-d.done
}

func (d *Dispatcher) onShutdown() {
	for _, s := range d.sessions {
		s.Send(protocol.RequestKick())
	}
	time.Sleep(time.Second)
	if err := save.Save(d.scene, d.cfg.SavePath); err != nil {
		d.log.WithError(err).Error("final save failed")
	}
	for _, s := range d.sessions {
		s.close()
	}
	d.log.Info("dispatcher shut down")
}

func (d *Dispatcher) publishStatus() {
	d.status.Store(Status{
		ServerID:       d.serverID,
		Ticks:          d.scene.Ticks(),
		Clients:        len(d.sessions),
		ConnectedSince: d.startedAt,
	})
}

// broadcast sends m to every joined session (sessions that have not sent
// ClientRequestJoin yet receive nothing), dropping any session whose
// outbound queue is saturated rather than blocking the dispatcher on a slow
// client.
func (d *Dispatcher) broadcast(m protocol.Message) {
	for id, s := range d.sessions {
		if s.Client == nil {
			continue
		}
		if !s.Send(m) {
			d.log.WithField("session", id).Warn("outbound queue saturated, kicking session")
			s.close()
			delete(d.sessions, id)
			d.publishStatus()
		}
	}
}

func (d *Dispatcher) broadcastTick(changed []core.InstanceID) {
	clients := make([]protocol.Client, 0, len(d.sessions))
	for _, s := range d.sessions {
		if s.Client != nil {
			clients = append(clients, *s.Client)
		}
	}
	d.broadcast(protocol.ResponseMetadata(protocol.Metadata{Ticks: d.scene.Ticks(), Clients: clients}))

	if len(changed) == 0 {
		return
	}
	updates := make([]protocol.UpdateBlock, 0, len(changed))
	for _, id := range changed {
		p, ok := d.scene.GetBlock(id)
		if !ok {
			continue
		}
		data := p.Block
		updates = append(updates, protocol.UpdateBlock{ID: uint32(id), Data: &data})
	}
	d.broadcast(protocol.RequestUpdateBlocks(updates))
}
