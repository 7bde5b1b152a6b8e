// Package common contains shared constants and sentinel errors used across
// gophgate components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound and outbound requests.
const AccessTokenHeaderName = "access_token"

// ThumbnailSuffix is appended to an asset id to form the object key of its thumbnail.
const ThumbnailSuffix = "-thumbnail"
