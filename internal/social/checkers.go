// Package social provides read-only lookups against the social graph tables
// owned by the profile service. This service never writes to them; drops only
// need yes/no answers for gating.
package social

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	followsTable     = "artist_follows"
	roomMembersTable = "room_members"
)

// FollowStore answers follow lookups from the shared database.
type FollowStore struct {
	db *gorm.DB
}

// NewFollowStore returns a follow store bound to the provided database.
func NewFollowStore(db *gorm.DB) *FollowStore {
	return &FollowStore{db: db}
}

// IsFollowing reports whether the fan follows the artist.
func (s *FollowStore) IsFollowing(ctx context.Context, fanID, artistID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Table(followsTable).
		Where("fan_id = ? AND artist_id = ?", fanID, artistID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RoomStore answers room membership lookups from the shared database.
type RoomStore struct {
	db *gorm.DB
}

// NewRoomStore returns a room store bound to the provided database.
func NewRoomStore(db *gorm.DB) *RoomStore {
	return &RoomStore{db: db}
}

// IsMember reports whether the user belongs to the room.
func (s *RoomStore) IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Table(roomMembersTable).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
