package models

type Configuration struct {
	AutoBackup  bool   `json:"autoBackup"`
	EndpointURL string `json:"endpointUrl"`
}
