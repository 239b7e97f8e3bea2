// Package roles computes the set of roles an actor holds against an entity.
//
// Resolution is table driven. Every entity kind registers a Policy naming
// the roles an owner receives, how membership flags translate into roles,
// how roles held on the parent entity are renamed on the way down, which
// anchors the kind accepts, and a final hook for state dependent
// adjustments. The Resolver walks the parent chain and applies the tables;
// it never stores a role set.
//
// An anonymous actor with no anchors resolves to an empty set. Guards must
// treat that as deny, not as an error.
package roles
