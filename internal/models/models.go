// package models defines the data model for the Melody Mix client
package models

// Role is the authorization role attached to a user account.
// It is the sole signal consumed by route guarding.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleCompany Role = "COMPANY"
	RoleUser    Role = "USER"
)

// Valid reports whether the role is one of the known role constants.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCompany, RoleUser:
		return true
	}
	return false
}

// UserRecord is the lightweight identity record held by the session and
// mirrored into durable storage alongside the bearer token.
type UserRecord struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// UserProfile is the full profile returned by GET /user/me.
//
// The update/change-password endpoints are provisional on the backend side,
// so optional fields tolerate absence.
type UserProfile struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	CompanyName    string `json:"companyName,omitempty"`
	CompanyAddress string `json:"companyAddress,omitempty"`
}

// Record projects the profile down to the lightweight session record.
func (p UserProfile) Record() UserRecord {
	return UserRecord{ID: p.ID, Username: p.Username, Email: p.Email, Role: p.Role}
}

// Song represents a track in the catalog.
type Song struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	Duration int    `json:"duration,omitempty"` // seconds
	FileURL  string `json:"fileUrl,omitempty"`
	CoverURL string `json:"coverUrl,omitempty"`
}

// PlaylistSummary is the list-view representation of a playlist.
type PlaylistSummary struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SongCount   int    `json:"songCount,omitempty"`
}

// PlaylistDetail is the full single-playlist representation including songs.
type PlaylistDetail struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Songs       []Song `json:"songs"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// Summary projects the detail down to its list-view representation.
func (d PlaylistDetail) Summary() PlaylistSummary {
	return PlaylistSummary{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		SongCount:   len(d.Songs),
	}
}
