package meta

import (
	"strings"

	crerr "github.com/cockroachdb/errors"
)

var rolePositions = map[Role]int{
	RoleTop:     1,
	RoleJungle:  2,
	RoleMid:     3,
	RoleADC:     4,
	RoleSupport: 5,
}

var tierKeys = map[Tier]string{
	TierDiamond:    "1",
	TierMaster:     "2",
	TierChallenger: "3",
}

// AllTiersKey is the upstream bucket aggregating every tier.
const AllTiersKey = "0"

func AllRoles() []Role {
	return []Role{RoleTop, RoleJungle, RoleMid, RoleADC, RoleSupport}
}

func AllTiers() []Tier {
	return []Tier{TierDiamond, TierMaster, TierChallenger}
}

func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := rolePositions[role]; !ok {
		return "", crerr.Wrapf(ErrInvalidArgument, "unsupported role %q", raw)
	}
	return role, nil
}

func ParseTier(raw string) (Tier, error) {
	tier := Tier(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := tierKeys[tier]; !ok {
		return "", crerr.Wrapf(ErrInvalidArgument, "unsupported tier %q", raw)
	}
	return tier, nil
}

// Position returns the fixed upstream position code of a role.
func (r Role) Position() (int, bool) {
	position, ok := rolePositions[r]
	return position, ok
}

// RoleForPosition is the inverse of Role.Position.
func RoleForPosition(position int) (Role, bool) {
	for role, p := range rolePositions {
		if p == position {
			return role, true
		}
	}
	return "", false
}

// Key returns the upstream tier bucket key.
func (t Tier) Key() (string, bool) {
	key, ok := tierKeys[t]
	return key, ok
}

func LegacyKey(role Role, tier Tier) string {
	return string(role) + ":" + string(tier)
}
