package capture

type DeviceRequest struct {
	ID        string `json:"id" binding:"required"`
	Label     string `json:"label"`
	Facing    Facing `json:"facing"`
	MaxWidth  int    `json:"maxWidth" binding:"gte=0"`
	MaxHeight int    `json:"maxHeight" binding:"gte=0"`
}

type StartSessionRequest struct {
	DeviceID string `json:"deviceId"`
}

type SwitchDeviceRequest struct {
	DeviceID string `json:"deviceId" binding:"required"`
}
