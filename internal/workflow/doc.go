// Package workflow is a small finite-state engine for entities with an
// integer coded state column.
//
// A Definition is a declarative table of named transitions, each with the
// set of states it may start from, the state it ends in and the roles
// allowed to call it. New validates the table and compiles it into a
// statekit chart; the chart decides the target of every transition that
// passes the role guard and the source check.
//
// Guards are evaluated in a fixed order: roles first, then source state.
// A caller lacking the role learns nothing about the current state.
package workflow
