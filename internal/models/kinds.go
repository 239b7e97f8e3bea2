// Package models holds the persistent entities of funnel and the small
// capability methods the role resolver and workflow engine rely on.
package models

// Entity kinds as used in role policies and membership parent references.
const (
	KindUser         = "user"
	KindOrganization = "organization"
	KindTeam         = "team"
	KindProject      = "project"
	KindProposal     = "proposal"
	KindCommentset   = "commentset"
)
