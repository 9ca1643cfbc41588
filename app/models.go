// Package app holds the relational periphery of BandSeeking: users,
// musician profiles, venues, favorites and venue reports. Everything
// here is plain CRUD on gorm models; the realtime messaging core lives
// in chat/ and ws/.
package app

import "time"

// User is an account. The ID doubles as the chat user id.
type User struct {
	ID        string `gorm:"primaryKey;size:40"`
	Email     string `gorm:"size:255;uniqueIndex;not null"`
	Name      string `gorm:"size:128"`
	IsAdmin   bool   `gorm:"default:false;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile is a musician's public page.
type Profile struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	UserID      string `gorm:"size:40;uniqueIndex;not null"`
	DisplayName string `gorm:"size:128;not null"`
	Bio         string `gorm:"type:text"`
	Instruments string `gorm:"size:255;index"` // comma separated
	Genres      string `gorm:"size:255;index"` // comma separated
	Zip         string `gorm:"size:16;index"`
	AvatarURL   string `gorm:"size:512"`
	Published   bool   `gorm:"default:true;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	User User `gorm:"foreignKey:UserID"`
}

// Venue is a place that hosts live music.
type Venue struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"size:128;not null;index"`
	Description string `gorm:"type:text"`
	Zip         string `gorm:"size:16;index"`
	Address     string `gorm:"size:255"`
	Website     string `gorm:"size:255"`
	Hidden      bool   `gorm:"default:false;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Favorite is a saved profile or venue. Exactly one of ProfileID and
// VenueID is set.
type Favorite struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"size:40;index:idx_fav_user_profile,unique;index:idx_fav_user_venue,unique;not null"`
	ProfileID *uint  `gorm:"index:idx_fav_user_profile,unique"`
	VenueID   *uint  `gorm:"index:idx_fav_user_venue,unique"`
	CreatedAt time.Time
}

// Venue report states. Plain toggles, no workflow.
const (
	ReportOpen      = "open"
	ReportResolved  = "resolved"
	ReportDismissed = "dismissed"
)

// VenueReport is a user-filed complaint about a venue listing.
type VenueReport struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	VenueID    uint   `gorm:"index;not null"`
	ReporterID string `gorm:"size:40;index;not null"`
	Reason     string `gorm:"type:text;not null"`
	Status     string `gorm:"size:16;default:open;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Venue Venue `gorm:"foreignKey:VenueID"`
}

// Notice is a persisted moderation event, written by the notify
// consumer. Key is the kafka message key so redelivery is idempotent.
type Notice struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Key       string `gorm:"size:40;uniqueIndex;not null"`
	Kind      string `gorm:"size:32;index"`
	VenueID   uint   `gorm:"index"`
	ReportID  uint   `gorm:"index"`
	Subject   string `gorm:"size:255"`
	Body      string `gorm:"type:text"`
	CreatedAt time.Time
}

// AllModels is the migration set.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Profile{},
		&Venue{},
		&Favorite{},
		&VenueReport{},
		&Notice{},
	}
}
