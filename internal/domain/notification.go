package domain

import "time"

// NotificationType enumerates display severities.
type NotificationType string

const (
	NotificationTypeInfo    NotificationType = "INFO"
	NotificationTypeSuccess NotificationType = "SUCCESS"
	NotificationTypeWarning NotificationType = "WARNING"
	NotificationTypeError   NotificationType = "ERROR"
)

// Audience addresses a notification: either a single user or a role-scoped
// broadcast. Exactly one of UserID and Role is set.
type Audience struct {
	UserID *string
	Role   *Role
}

// UserAudience addresses a single user.
func UserAudience(userID string) Audience {
	return Audience{UserID: &userID}
}

// RoleAudience addresses every holder of a role.
func RoleAudience(role Role) Audience {
	return Audience{Role: &role}
}

// Notification is created only as a side effect of a state transition or an
// inbound contact message; after creation only IsRead may change.
type Notification struct {
	ID        string
	Audience  Audience
	Type      NotificationType
	Title     string
	Message   string
	Redirect  *string
	IsRead    bool
	CreatedAt time.Time
}
