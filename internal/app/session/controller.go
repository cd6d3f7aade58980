// Package session owns the lifecycle of the single live room session: when
// one exists, how transport events map onto it, and what happens to the
// accumulated chat log when it ends.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yueqiao/voicedesk/internal/app/transcript"
	"github.com/yueqiao/voicedesk/internal/domain"
	"github.com/yueqiao/voicedesk/internal/observability"
)

var (
	// ErrSessionActive is returned when a start intent arrives while a
	// handle already occupies the session slot (Starting or Active).
	ErrSessionActive = errors.New("a session is already active")

	// ErrNoSession is returned for operations that need a live session.
	ErrNoSession = errors.New("no active session")
)

// persistTimeout bounds the detached transcript save. The save is never
// awaited by teardown, but it should not leak forever either.
const persistTimeout = 30 * time.Second

// Controller is the session lifecycle state machine. It owns the single
// session slot and the append-only raw chat log; nothing else may mutate
// either. All transitions are explicit methods.
type Controller struct {
	identity domain.Identity
	factory  domain.SessionFactory
	provider domain.ConnectionProvider
	store    domain.TranscriptStore
	alerts   domain.AlertSink

	preConnectBuffer bool
	now              func() time.Time
	newID            func() string

	mu      sync.Mutex
	started bool
	sess    domain.RoomSession
	log     []domain.RawChatEvent
}

func NewController(
	identity domain.Identity,
	factory domain.SessionFactory,
	provider domain.ConnectionProvider,
	store domain.TranscriptStore,
	alerts domain.AlertSink,
	preConnectBuffer bool,
) *Controller {
	return &Controller{
		identity:         identity,
		factory:          factory,
		provider:         provider,
		store:            store,
		alerts:           alerts,
		preConnectBuffer: preConnectBuffer,
		now:              time.Now,
		newID:            uuid.NewString,
	}
}

// Started reports whether a session is nominally running. Render-gating
// only; it can be true while the underlying handle is degraded (see
// StartSession).
func (c *Controller) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// StartSession moves Idle → Starting → Active. It allocates the session
// handle, then enables the microphone (with the configured pre-connect
// buffering) and connects, concurrently. A mic or connect failure is
// reported through the alert sink and the session is left nominally
// started, degraded handle and all — no rollback, no retry. The returned
// error is non-nil only when the start intent itself was rejected: a
// handle already holds the slot, or no connection details were available.
func (c *Controller) StartSession(ctx context.Context) error {
	c.mu.Lock()
	if c.sess != nil {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.mu.Unlock()

	log := observability.LoggerFromContext(ctx).With("identity", c.identity.Identity)

	details, err := c.provider.Details(ctx)
	if err != nil {
		log.Error("failed to obtain connection details", "error", err)
		return fmt.Errorf("obtaining connection details: %w", err)
	}

	c.mu.Lock()
	// Re-check: another start intent may have won the slot while we were
	// fetching details.
	if c.sess != nil {
		c.mu.Unlock()
		return ErrSessionActive
	}
	sess := c.factory.NewSession()
	c.sess = sess
	c.log = nil
	c.started = true
	c.mu.Unlock()

	log.Info("session starting", "server_url", details.ServerURL)
	go c.pump(sess)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sess.EnableMicrophone(gctx, domain.MicrophoneOptions{
			Enabled:          true,
			PreConnectBuffer: c.preConnectBuffer,
		})
	})
	g.Go(func() error {
		return sess.Connect(gctx, details)
	})

	if err := g.Wait(); err != nil {
		// Degraded start: alert the user and stay nominally started.
		log.Error("session start degraded", "error", err)
		c.alerts.Alert("There was an error connecting to the agent", err.Error())
		return nil
	}

	log.Info("session active", "local_sid", sess.LocalSID())
	return nil
}

// SendChat publishes a message to the room and appends the matching
// local-authored event to the raw log.
func (c *Controller) SendChat(ctx context.Context, text string) error {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return ErrNoSession
	}

	ev := domain.RawChatEvent{
		ID:             c.newID(),
		Message:        text,
		Timestamp:      c.now().UnixMilli(),
		FromLocal:      true,
		ParticipantSID: sess.LocalSID(),
	}
	if err := sess.SendChat(ctx, ev); err != nil {
		return fmt.Errorf("sending chat message: %w", err)
	}

	c.appendEvent(sess, ev)
	return nil
}

// EndSession runs the Ending transition: hand the raw log to the
// normalizer, submit the result to the store as a detached task, then
// unconditionally tear the handle down and return to Idle. Safe to call
// when no session exists (the disconnect-triggered and explicit paths are
// idempotent with respect to each other). Persistence failures are
// observed in the log but never block or fail teardown.
func (c *Controller) EndSession(ctx context.Context) {
	c.mu.Lock()
	sess := c.sess
	if sess == nil {
		c.mu.Unlock()
		return
	}
	events := c.log
	c.sess = nil
	c.log = nil
	c.started = false
	c.mu.Unlock()

	if records := transcript.Normalize(events, c.identity); len(records) != 0 {
		go c.persist(records)
	}

	sess.Disconnect()
	observability.LoggerFromContext(ctx).Info("session ended", "chat_events", len(events))
}

func (c *Controller) persist(records []domain.NormalizedMessageRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	filename, err := c.store.Save(ctx, records)
	if err != nil {
		// Swallowed on purpose: persistence must never affect teardown.
		observability.Logger().Warn("failed to save transcript", "error", err)
		return
	}
	observability.Logger().Info("transcript saved", "filename", filename, "messages", len(records))
}

// pump drains one session's event channel until it closes. This is the
// single cooperative tick: every transport callback funnels through here,
// so state transitions never race each other.
func (c *Controller) pump(sess domain.RoomSession) {
	for ev := range sess.Events() {
		switch e := ev.(type) {
		case domain.ChatReceived:
			c.appendEvent(sess, e.Event)
		case domain.MediaDeviceError:
			c.alerts.Alert("Encountered an error with your media devices", e.Err.Error())
		case domain.Disconnected:
			c.onDisconnected(sess, e.Reason)
		}
	}
}

func (c *Controller) appendEvent(sess domain.RoomSession, ev domain.RawChatEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != sess {
		// Stale handle, already torn down.
		return
	}
	c.log = append(c.log, ev)
}

// onDisconnected reacts to the transport dropping the session: the started
// flag falls immediately, connection details are refreshed so the next
// start gets a fresh token, and the Ending transition runs. A stale handle
// (explicit end already won) is a no-op.
func (c *Controller) onDisconnected(sess domain.RoomSession, reason string) {
	c.mu.Lock()
	if c.sess != sess {
		c.mu.Unlock()
		return
	}
	c.started = false
	c.mu.Unlock()

	observability.Logger().Info("session disconnected", "reason", reason)

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := c.provider.Refresh(ctx); err != nil {
		observability.Logger().Warn("failed to refresh connection details", "error", err)
	}

	c.EndSession(ctx)
}
