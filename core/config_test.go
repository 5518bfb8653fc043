package core

import (
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
)

func TestQueueConfig_Location(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		want     string
	}{
		{name: "zone", timezone: "America/New_York", want: "America/New_York"},
		{name: "utc", timezone: "UTC", want: "UTC"},
		{name: "unknown falls back to utc", timezone: "Mars/Olympus_Mons", want: "UTC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QueueConfig{Timezone: tt.timezone}.Location().String())
		})
	}
}
