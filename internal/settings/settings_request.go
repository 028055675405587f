package settings

type PatchSettingsRequest struct {
	AutoBackup  *bool   `json:"autoBackup"`
	EndpointURL *string `json:"endpointUrl"`
}
