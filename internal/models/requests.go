package models

// CreateRoomRequest is the body of the create-room call.
type CreateRoomRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	IsPrivate bool   `json:"isPrivate"`
}

// AddToQueueRequest nominates a track. TrackID carries the provider URI.
type AddToQueueRequest struct {
	TrackID   string `json:"track_id" validate:"required"`
	TrackName string `json:"track_name" validate:"required"`
	Artist    string `json:"artist" validate:"required"`
}

// VoteRequest votes on a queue item. TrackID carries the queue item id.
type VoteRequest struct {
	TrackID string `json:"track_id" validate:"required"`
	Vote    int    `json:"vote" validate:"oneof=1 -1"`
}

// PlayRequest asks the backend to start a track on a device.
type PlayRequest struct {
	TrackURI string `json:"trackUri" validate:"required"`
	DeviceID string `json:"deviceId" validate:"required"`
}

// DeviceRequest scopes pause/next/previous to a device.
type DeviceRequest struct {
	DeviceID string `json:"deviceId" validate:"required"`
}

// TransferRequest moves playback to the given devices.
type TransferRequest struct {
	DeviceIDs []string `json:"deviceIds" validate:"required,min=1"`
	Play      bool     `json:"play"`
}
