// ABOUTME: User preference structure persisted as an opaque blob on the identity
// ABOUTME: Absent or corrupt stored preferences decode to these defaults

package model

// Preferences is the nested settings structure attached to an identity.
// It is persisted as an opaque encoded blob; the mapper owns the codec.
type Preferences struct {
	Theme           string `json:"theme"`
	WeekStartsOn    string `json:"week_starts_on"`
	DefaultSort     string `json:"default_sort"`
	ReminderEnabled bool   `json:"reminder_enabled"`
	ReminderHour    int    `json:"reminder_hour"`
	HapticsEnabled  bool   `json:"haptics_enabled"`
}

// DefaultPreferences returns the preferences used when nothing has been
// stored yet, or when the stored blob cannot be decoded.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:           "system",
		WeekStartsOn:    "monday",
		DefaultSort:     "newest",
		ReminderEnabled: false,
		ReminderHour:    20,
		HapticsEnabled:  true,
	}
}
