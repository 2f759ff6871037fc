// Package ui provides the Bubble Tea dashboard for tubetop.
package ui

import (
	"tubetop/internal/channels"
	"tubetop/internal/feed"
)

// CacheLoaded is sent when the persisted video cache has been read.
type CacheLoaded struct {
	Videos []feed.Video
	Err    error
}

// RefreshDone is sent when a background aggregation finishes.
type RefreshDone struct {
	Result *feed.Result
	Err    error
}

// ChannelResolved is sent when a channel identifier lookup finishes.
type ChannelResolved struct {
	Channel channels.Channel
	Err     error
}

// CredentialChanged is sent when the API key changes outside the UI
// (config file edit picked up by the watcher).
type CredentialChanged struct {
	APIKey string
}

// toastExpired clears the transient status toast.
type toastExpired struct{}
