package models

import "time"

// BadgeType 代表驗證標章的種類
type BadgeType string

const (
	BadgeOrganization BadgeType = "ORGANIZATION"
	BadgeAffiliated   BadgeType = "AFFILIATED"
)

// OrgStatusVerified 是組織註冊後唯一的狀態
const OrgStatusVerified = "verified"

// Organization 代表已註冊的組織，註冊後即為 verified 狀態
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Badge     BadgeType `json:"badge"`
	CreatedAt time.Time `json:"createdAt"`
}

// Affiliation 代表使用者與組織的隸屬關係，一個使用者只能隸屬一個組織
type Affiliation struct {
	UserID    string    `json:"userId"`
	OrgID     string    `json:"orgId"`
	Badge     BadgeType `json:"badge"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
