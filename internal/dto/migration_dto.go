package dto

type MigrationStatusResponse struct {
	Status string `json:"status"`
	Needed bool   `json:"needed"`
}
