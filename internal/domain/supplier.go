package domain

import "time"

type Supplier struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	ContactPerson string     `json:"contactPerson,omitempty"`
	Email         string     `json:"email,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Address       string     `json:"address,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}
