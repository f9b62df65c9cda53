package video

import (
	"context"
	"fmt"
)

// JoinInfo contains information needed to join a therapy video room.
type JoinInfo struct {
	URL      string `json:"url"`
	Token    string `json:"token"`
	RoomName string `json:"room_name"`
	Identity string `json:"identity"`
}

// Engine abstracts the media backend for therapy video calls.
type Engine interface {
	// JoinInfo creates join credentials for identity in roomName.
	JoinInfo(ctx context.Context, roomName, identity, name string) (*JoinInfo, error)
}

// RoomName returns the video room shared by a student and their therapist.
func RoomName(studentID, therapistID string) string {
	return fmt.Sprintf("therapy-%s-%s", studentID, therapistID)
}
