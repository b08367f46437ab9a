package drops

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stagepass/stagepass-backend/pkg/db/models"
	"github.com/stagepass/stagepass-backend/pkg/enums"
)

type stubFollowChecker struct {
	following map[string]bool
}

func (s *stubFollowChecker) IsFollowing(ctx context.Context, fanID, artistID uuid.UUID) (bool, error) {
	return s.following[fanID.String()+":"+artistID.String()], nil
}

func (s *stubFollowChecker) follow(fanID, artistID uuid.UUID) {
	if s.following == nil {
		s.following = map[string]bool{}
	}
	s.following[fanID.String()+":"+artistID.String()] = true
}

type stubRoomChecker struct {
	members map[string]bool
}

func (s *stubRoomChecker) IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	return s.members[roomID.String()+":"+userID.String()], nil
}

func (s *stubRoomChecker) admit(roomID, userID uuid.UUID) {
	if s.members == nil {
		s.members = map[string]bool{}
	}
	s.members[roomID.String()+":"+userID.String()] = true
}

func newTestGate() (*gate, *stubFollowChecker, *stubRoomChecker) {
	follows := &stubFollowChecker{}
	rooms := &stubRoomChecker{}
	return &gate{follows: follows, rooms: rooms}, follows, rooms
}

func liveDrop(artistID uuid.UUID, gating enums.DropGating) *models.MerchDrop {
	return &models.MerchDrop{
		ID:       uuid.New(),
		ArtistID: artistID,
		Title:    "spring capsule",
		Gating:   gating,
		Status:   enums.DropStatusLive,
	}
}

func TestPublicDropAllowsAnonymous(t *testing.T) {
	g, _, _ := newTestGate()
	drop := liveDrop(uuid.New(), enums.DropGatingPublic)

	decision, err := g.CanAccess(context.Background(), drop, uuid.Nil, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("expected public drop to allow anonymous viewers, got %+v", decision)
	}
}

func TestGatedDropRequiresSignIn(t *testing.T) {
	g, _, _ := newTestGate()
	for _, gating := range []enums.DropGating{
		enums.DropGatingRoomOnly,
		enums.DropGatingFollowersOnly,
		enums.DropGatingFollowersEarlyAccess,
	} {
		drop := liveDrop(uuid.New(), gating)
		decision, err := g.CanAccess(context.Background(), drop, uuid.Nil, time.Now())
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", gating, err)
		}
		if decision.Allowed {
			t.Fatalf("%s: expected denial for anonymous viewer", gating)
		}
		if decision.Reason != msgSignInRequired {
			t.Fatalf("%s: expected sign-in reason, got %q", gating, decision.Reason)
		}
	}
}

func TestRoomOnlyGate(t *testing.T) {
	g, _, rooms := newTestGate()
	artistID := uuid.New()
	roomID := uuid.New()
	member := uuid.New()
	outsider := uuid.New()
	rooms.admit(roomID, member)

	drop := liveDrop(artistID, enums.DropGatingRoomOnly)
	drop.RoomID = &roomID

	decision, err := g.CanAccess(context.Background(), drop, member, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("expected room member to be allowed, got %+v", decision)
	}

	decision, err = g.CanAccess(context.Background(), drop, outsider, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed || decision.Reason != msgRoomMembersOnly {
		t.Fatalf("expected room denial, got %+v", decision)
	}
}

func TestRoomOnlyWithoutRoomIsUnrestricted(t *testing.T) {
	g, _, _ := newTestGate()
	drop := liveDrop(uuid.New(), enums.DropGatingRoomOnly)

	decision, err := g.CanAccess(context.Background(), drop, uuid.New(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("expected drop without a room reference to be open, got %+v", decision)
	}
}

func TestFollowersOnlyGate(t *testing.T) {
	g, follows, _ := newTestGate()
	artistID := uuid.New()
	follower := uuid.New()
	stranger := uuid.New()
	follows.follow(follower, artistID)

	drop := liveDrop(artistID, enums.DropGatingFollowersOnly)

	decision, err := g.CanAccess(context.Background(), drop, follower, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("expected follower to be allowed, got %+v", decision)
	}

	decision, err = g.CanAccess(context.Background(), drop, stranger, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed || decision.Reason != msgFollowersOnly {
		t.Fatalf("expected follower denial, got %+v", decision)
	}
}

func TestEarlyAccessWindow(t *testing.T) {
	g, follows, _ := newTestGate()
	artistID := uuid.New()
	follower := uuid.New()
	stranger := uuid.New()
	follows.follow(follower, artistID)

	startsAt := time.Date(2026, 6, 15, 18, 0, 0, 0, time.UTC)
	drop := liveDrop(artistID, enums.DropGatingFollowersEarlyAccess)
	drop.StartsAt = &startsAt
	drop.EarlyAccessDays = 3

	// Follower two days before the start is inside the early window.
	at := startsAt.Add(-48 * time.Hour)
	decision, err := g.CanAccess(context.Background(), drop, follower, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("expected follower inside early window to be allowed, got %+v", decision)
	}

	// Non-follower at the same instant waits for the public start.
	decision, err = g.CanAccess(context.Background(), drop, stranger, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("expected non-follower inside early window to be denied")
	}
	want := fmt.Sprintf("drop starts at %s", startsAt.Format(time.RFC3339))
	if decision.Reason != want {
		t.Fatalf("expected reason %q, got %q", want, decision.Reason)
	}

	// Anyone after the public start gets in.
	at = startsAt.Add(time.Hour)
	for _, viewer := range []uuid.UUID{follower, stranger} {
		decision, err = g.CanAccess(context.Background(), drop, viewer, at)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !decision.Allowed {
			t.Fatalf("expected viewer after start to be allowed, got %+v", decision)
		}
	}
}

func TestEarlyAccessBeforeWindow(t *testing.T) {
	g, follows, _ := newTestGate()
	artistID := uuid.New()
	follower := uuid.New()
	stranger := uuid.New()
	follows.follow(follower, artistID)

	startsAt := time.Date(2026, 6, 15, 18, 0, 0, 0, time.UTC)
	drop := liveDrop(artistID, enums.DropGatingFollowersEarlyAccess)
	drop.StartsAt = &startsAt
	drop.EarlyAccessDays = 3

	// Five days out nobody is in yet, but the messaging differs.
	at := startsAt.Add(-5 * 24 * time.Hour)
	decision, err := g.CanAccess(context.Background(), drop, follower, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("expected follower before early window to be denied")
	}
	if !strings.HasPrefix(decision.Reason, "early access opens at ") {
		t.Fatalf("expected early-access-opens reason, got %q", decision.Reason)
	}

	decision, err = g.CanAccess(context.Background(), drop, stranger, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed || decision.Reason != msgFollowForEarlyAccess {
		t.Fatalf("expected follow-for-early-access denial, got %+v", decision)
	}
}

func TestEffectiveStatusProjectsScheduledToLive(t *testing.T) {
	startsAt := time.Date(2026, 6, 15, 18, 0, 0, 0, time.UTC)
	drop := &models.MerchDrop{Status: enums.DropStatusScheduled, StartsAt: &startsAt}

	if got := EffectiveStatus(drop, startsAt.Add(-time.Minute)); got != enums.DropStatusScheduled {
		t.Fatalf("expected scheduled before start, got %s", got)
	}
	if got := EffectiveStatus(drop, startsAt); got != enums.DropStatusLive {
		t.Fatalf("expected live at start, got %s", got)
	}
	if got := EffectiveStatus(drop, startsAt.Add(time.Hour)); got != enums.DropStatusLive {
		t.Fatalf("expected live after start, got %s", got)
	}

	cancelled := &models.MerchDrop{Status: enums.DropStatusCancelled, StartsAt: &startsAt}
	if got := EffectiveStatus(cancelled, startsAt.Add(time.Hour)); got != enums.DropStatusCancelled {
		t.Fatalf("cancelled drops must never project to live, got %s", got)
	}
}
