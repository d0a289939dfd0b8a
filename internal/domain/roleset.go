package domain

import "github.com/qingwen-guan/allied-citadels/internal/randx"

// RoleSet is a bitmask over the 8 Role values.
type RoleSet struct {
	value int
}

// EmptyRoleSet returns a set containing no roles.
func EmptyRoleSet() RoleSet {
	return RoleSet{}
}

// UniversalRoleSet returns a set containing every role.
func UniversalRoleSet() RoleSet {
	return RoleSet{value: (1 << 8) - 1}
}

// RoleSetFromPair builds a two-role set, used for the 4-player public drop.
func RoleSetFromPair(a, b Role) RoleSet {
	return RoleSet{value: int(a) | int(b)}
}

// Contains reports whether role r is a member of the set.
func (s RoleSet) Contains(r Role) bool {
	return s.value&int(r) != 0
}

// Add returns a new set with role r added.
func (s RoleSet) Add(r Role) RoleSet {
	return RoleSet{value: s.value | int(r)}
}

// Union returns the union of two sets.
func (s RoleSet) Union(o RoleSet) RoleSet {
	return RoleSet{value: s.value | o.value}
}

// Remove returns a new set with role r removed.
func (s RoleSet) Remove(r Role) RoleSet {
	return RoleSet{value: s.value &^ int(r)}
}

// Difference returns s minus every role in o.
func (s RoleSet) Difference(o RoleSet) RoleSet {
	return RoleSet{value: s.value &^ o.value}
}

// Len returns the number of roles in the set.
func (s RoleSet) Len() int {
	count := 0
	v := s.value
	for v != 0 {
		v &= v - 1
		count++
	}
	return count
}

// IsEmpty reports whether the set has no members.
func (s RoleSet) IsEmpty() bool {
	return s.value == 0
}

// Single returns the lone role in a one-element set; callers must ensure Len()==1.
func (s RoleSet) Single() Role {
	return Role(s.value)
}

// RandomChoose picks one role from the set uniformly at random.
func (s RoleSet) RandomChoose() Role {
	cnt := s.Len()
	index := randx.Intn(cnt)

	v := s.value
	for i := 0; i < index; i++ {
		v &= v - 1 // clear lowest set bit
	}
	return Role(v & -v) // isolate lowest set bit
}

// Members returns every role in the set, in Population() order.
func (s RoleSet) Members() []Role {
	var out []Role
	for _, r := range Population() {
		if s.Contains(r) {
			out = append(out, r)
		}
	}
	return out
}

// Int returns the raw bitmask value, used only for wire/journal encoding.
func (s RoleSet) Int() int {
	return s.value
}

// RoleSetFromInt rebuilds a RoleSet from its raw bitmask value.
func RoleSetFromInt(v int) RoleSet {
	return RoleSet{value: v}
}
