package model

import "time"

// このファイルの型は外部バックエンドが所有するレコードの
// リクエストスコープのコピーであり、ポータル側では永続化しない。
// JSONタグはバックエンドAPIのワイヤフォーマットに合わせている。

// RepairStatus は修理チケットの状態を表す。
type RepairStatus string

const (
	// RepairStatusPending は受付済み・未着手の状態。
	RepairStatusPending RepairStatus = "pending"
	// RepairStatusInProgress は対応中の状態。
	RepairStatusInProgress RepairStatus = "in_progress"
	// RepairStatusWaitingParts は部品待ちの状態。
	RepairStatusWaitingParts RepairStatus = "waiting_parts"
	// RepairStatusCompleted は修理完了の状態。
	RepairStatusCompleted RepairStatus = "completed"
	// RepairStatusRejected は対応不可として却下された状態。
	RepairStatusRejected RepairStatus = "rejected"
)

// ValidRepairStatus は既知の修理ステータスかどうかを返す。
func ValidRepairStatus(s string) bool {
	switch RepairStatus(s) {
	case RepairStatusPending, RepairStatusInProgress, RepairStatusWaitingParts,
		RepairStatusCompleted, RepairStatusRejected:
		return true
	}
	return false
}

// RepairTicket は修理チケットを表す。
type RepairTicket struct {
	ID           int          `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Status       RepairStatus `json:"status"`
	Priority     string       `json:"priority"`
	ReporterID   int          `json:"reporter_id"`
	ReporterName string       `json:"reporter_name"`
	AssigneeID   int          `json:"assignee_id,omitempty"`
	DepartmentID int          `json:"department_id"`
	ImageURL     string       `json:"image_url,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Loan は機器貸出記録を表す。
type Loan struct {
	ID            int        `json:"id"`
	EquipmentName string     `json:"equipment_name"`
	EquipmentID   int        `json:"equipment_id"`
	BorrowerID    int        `json:"borrower_id"`
	BorrowerName  string     `json:"borrower_name"`
	Status        string     `json:"status"` // borrowed / returned / overdue
	BorrowedAt    time.Time  `json:"borrowed_at"`
	DueAt         time.Time  `json:"due_at"`
	ReturnedAt    *time.Time `json:"returned_at,omitempty"`
}

// PortalUser はバックエンドが管理する利用者アカウントを表す。
type PortalUser struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	DepartmentID int    `json:"department_id"`
	LineUserID   string `json:"line_user_id,omitempty"`
}

// Department は部署を表す。
type Department struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Notification は利用者向け通知を表す。
type Notification struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// StockItem は交換部品・貸出機材の在庫を表す。
type StockItem struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
	Unit     string `json:"unit"`
}

// AuditEntry はバックエンドの監査ログ1件を表す。
type AuditEntry struct {
	ID        int       `json:"id"`
	ActorID   int       `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	CreatedAt time.Time `json:"created_at"`
}
