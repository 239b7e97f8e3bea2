// Package common contains shared constants and sentinel errors used across
// funnel components.
package common

// AccessTokenHeaderName is the gRPC metadata key carrying the actor's
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"

// AnchorHeaderName is the gRPC metadata key carrying signed anchor tokens.
// The key may repeat; every value is verified independently.
const AnchorHeaderName = "anchor"
