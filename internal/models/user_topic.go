package models

// VisibilityPolicy is a user's per-topic visibility override. The zero
// value is the default policy; topics with the default policy are not
// stored, keeping the map sparse.
type VisibilityPolicy int

const (
	VisibilityPolicyNone     VisibilityPolicy = 0
	VisibilityPolicyMuted    VisibilityPolicy = 1
	VisibilityPolicyUnmuted  VisibilityPolicy = 2
	VisibilityPolicyFollowed VisibilityPolicy = 3
)

// Valid reports whether the value is a known policy.
func (p VisibilityPolicy) Valid() bool {
	return p >= VisibilityPolicyNone && p <= VisibilityPolicyFollowed
}
