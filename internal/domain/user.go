package domain

import "time"

type UserRole string

const (
	UserRoleRenter UserRole = "RENTER"
	UserRoleOwner  UserRole = "OWNER"
	UserRoleAdmin  UserRole = "ADMIN"
)

type UserStatus string

const (
	UserStatusPendingVerification UserStatus = "PENDING_VERIFICATION"
	UserStatusVerified            UserStatus = "VERIFIED"
	UserStatusSuspended           UserStatus = "SUSPENDED"
)

// Discount eligibility thresholds.
const (
	DiscountRatingThreshold = 4.7
)

type User struct {
	ID                         string     `json:"id"`
	Email                      string     `json:"email"`
	FirstName                  string     `json:"first_name"`
	LastName                   string     `json:"last_name"`
	PhoneNumber                string     `json:"phone_number"`
	Role                       UserRole   `json:"role"`
	Status                     UserStatus `json:"status"`
	Rating                     float64    `json:"rating"`
	RatingCount                int        `json:"rating_count"`
	ReportCount                int        `json:"report_count"`
	IsBlocked                  bool       `json:"is_blocked"`
	BlockedUntil               *time.Time `json:"blocked_until,omitempty"`
	LateReturnSurchargePending bool       `json:"late_return_surcharge_pending"`
	CreatedAt                  time.Time  `json:"created_at"`
	UpdatedAt                  time.Time  `json:"updated_at"`
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func (u *User) IsRenter() bool { return u.Role == UserRoleRenter }
func (u *User) IsOwner() bool  { return u.Role == UserRoleOwner }
func (u *User) IsAdmin() bool  { return u.Role == UserRoleAdmin }

func (u *User) IsEligibleForDiscount() bool {
	return u.Rating >= DiscountRatingThreshold && u.ReportCount == 0
}

// Block prevents the user from booking for days days starting at now.
// An existing block that lasts longer is kept.
func (u *User) Block(days int, now time.Time) {
	until := now.AddDate(0, 0, days)
	if u.IsBlocked && u.BlockedUntil != nil && u.BlockedUntil.After(until) {
		until = *u.BlockedUntil
	}
	u.IsBlocked = true
	u.BlockedUntil = &until
	u.UpdatedAt = now
}

func (u *User) Unblock(now time.Time) {
	u.IsBlocked = false
	u.BlockedUntil = nil
	u.UpdatedAt = now
}

// BlockExpired reports whether a blocked user may be released at now. A
// block without an end date is treated as expired.
func (u *User) BlockExpired(now time.Time) bool {
	if !u.IsBlocked {
		return false
	}
	return u.BlockedUntil == nil || !now.Before(*u.BlockedUntil)
}

func (u *User) UpdateRating(rating int, now time.Time) {
	u.Rating = runningMean(u.Rating, u.RatingCount, rating)
	u.RatingCount++
	u.UpdatedAt = now
}

func (u *User) IncreaseReportCount(now time.Time) {
	u.ReportCount++
	u.UpdatedAt = now
}

// ConsumeLateReturnSurcharge clears the pending surcharge flag and reports
// whether it was set.
func (u *User) ConsumeLateReturnSurcharge(now time.Time) bool {
	if !u.LateReturnSurchargePending {
		return false
	}
	u.LateReturnSurchargePending = false
	u.UpdatedAt = now
	return true
}
