package store

import (
	"fmt"

	"github.com/dyluth/teamboard/pkg/record"
)

// Key pattern helpers
//
// Key pattern: teamboard:{instance_name}:{entity}:{kind}
// Channel pattern: teamboard:{instance_name}:{event_type}

// CollectionKey returns the medium key for a record collection.
// Pattern: teamboard:{instance_name}:collection:{kind}
func CollectionKey(instanceName string, kind record.Kind) string {
	return fmt.Sprintf("teamboard:%s:collection:%s", instanceName, kind)
}

// NotificationsChannel returns the Pub/Sub channel name for outcome notifications.
// Pattern: teamboard:{instance_name}:notifications
func NotificationsChannel(instanceName string) string {
	return fmt.Sprintf("teamboard:%s:notifications", instanceName)
}
