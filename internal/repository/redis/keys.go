package redis

import "fmt"

const ns = "kaamexpress:v1"

func KeySnapshotLatest() string {
	return ns + ":analytics:snapshot:latest"
}

// KeyRateLimitPrefix is the limiter prefix; the limiter appends the
// bucket suffix ("ip:<addr>") itself.
func KeyRateLimitPrefix() string {
	return ns + ":rl"
}

func KeyReminderSent(bookingID string) string {
	return fmt.Sprintf("%s:reminder:%s", ns, bookingID)
}

func ChannelBookingsChanged() string {
	return ns + ":bookings:changed"
}
