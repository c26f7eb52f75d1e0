package auth

import "strings"

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleReceptionist Role = "receptionist"
	RoleGuest        Role = "guest"
)

// roleAliases maps legacy role spellings still emitted by the identity
// service onto the closed enumeration.
var roleAliases = map[string]Role{
	"admin":         RoleAdmin,
	"administrator": RoleAdmin,
	"manager":       RoleAdmin,
	"receptionist":  RoleReceptionist,
	"recepcionista": RoleReceptionist,
	"frontdesk":     RoleReceptionist,
	"guest":         RoleGuest,
	"hospede":       RoleGuest,
}

// NormalizeRole resolves a raw role string to a known Role. The second
// return is false for anything outside the enumeration.
func NormalizeRole(raw string) (Role, bool) {
	role, ok := roleAliases[strings.ToLower(strings.TrimSpace(raw))]
	return role, ok
}

// Action names mirror the operations the HTTP surface exposes.
const (
	ActionCreateReservation   = "createReservation"
	ActionListReservations    = "listReservations"
	ActionCheckIn             = "checkIn"
	ActionCheckOut            = "checkOut"
	ActionCancel              = "cancel"
	ActionUpdatePaymentStatus = "updatePaymentStatus"
	ActionUpdateAmount        = "updateAmount"
	ActionManageGuests        = "manageGuests"
	ActionViewOccupancy       = "viewOccupancy"
	ActionViewReports         = "viewReports"
)

var frontDesk = []Role{RoleAdmin, RoleReceptionist}

// policy is the static allow-list per action. Absent actions deny.
var policy = map[string][]Role{
	ActionCreateReservation:   frontDesk,
	ActionListReservations:    frontDesk,
	ActionCheckIn:             frontDesk,
	ActionCheckOut:            frontDesk,
	ActionCancel:              frontDesk,
	ActionUpdatePaymentStatus: frontDesk,
	ActionUpdateAmount:        frontDesk,
	ActionManageGuests:        frontDesk,
	ActionViewOccupancy:       frontDesk,
	ActionViewReports:         {RoleAdmin},
}

// Authorize checks decoded claims against the action's allow-list. It fails
// closed: nil claims, unknown roles and unknown actions all deny.
func Authorize(claims *Claims, action string) bool {
	if claims == nil {
		return false
	}
	role, ok := NormalizeRole(string(claims.Role))
	if !ok {
		return false
	}
	for _, allowed := range policy[action] {
		if role == allowed {
			return true
		}
	}
	return false
}
