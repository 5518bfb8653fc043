package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/carline/core"
	"github.com/trezcool/carline/core/metrics"
	"github.com/trezcool/carline/core/queue"
	emailsvc "github.com/trezcool/carline/services/email"
	"github.com/trezcool/carline/tests"
)

type fakeQueue struct {
	res queue.ResetResult
	err error
}

func (f *fakeQueue) ScheduledClearAllQueues(context.Context) (queue.ResetResult, error) {
	return f.res, f.err
}

type fakeMetrics struct {
	days, months []time.Time
	err          error
}

func (f *fakeMetrics) RefreshDay(_ context.Context, day time.Time) ([]metrics.Snapshot, error) {
	f.days = append(f.days, day)
	return nil, f.err
}

func (f *fakeMetrics) RefreshMonth(_ context.Context, month time.Time) ([]metrics.Snapshot, error) {
	f.months = append(f.months, month)
	return nil, f.err
}

func newScheduler(t *testing.T, q Resetter, m Refresher) *Scheduler {
	t.Helper()
	s, err := New(
		Options{ResetSchedule: "0 0 3 * * *", MetricsSchedule: "0 30 3 * * *", Location: time.UTC, ReportTo: []string{"Ops <ops@carline.test>", "not an address"}},
		q, m, emailsvc.NewConsoleServiceMock(core.Conf), testutil.NewLogger(),
	)
	require.NoError(t, err)
	return s
}

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := New(Options{ResetSchedule: "every night"}, &fakeQueue{}, &fakeMetrics{}, emailsvc.NewConsoleServiceMock(core.Conf), testutil.NewLogger())
	assert.Error(t, err)

	_, err = New(Options{ResetSchedule: "0 0 3 * * *", MetricsSchedule: "later"}, &fakeQueue{}, &fakeMetrics{}, emailsvc.NewConsoleServiceMock(core.Conf), testutil.NewLogger())
	assert.Error(t, err)
}

func TestScheduler_RunReset(t *testing.T) {
	testutil.FreezeClock(t, time.Date(2024, 3, 5, 3, 0, 0, 0, time.UTC))

	tests := []struct {
		name     string
		q        *fakeQueue
		wantMail bool
	}{
		{name: "nothing left over", q: &fakeQueue{}},
		{name: "cars archived", q: &fakeQueue{res: queue.ResetResult{Campuses: 2, Entries: 7}}, wantMail: true},
		{name: "failures only", q: &fakeQueue{res: queue.ResetResult{Failed: 1}}, wantMail: true},
		{name: "reset error", q: &fakeQueue{err: errors.New("db down")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ResetSentMessages()
			s := newScheduler(t, tt.q, &fakeMetrics{})

			res := s.RunReset(context.Background())
			assert.Equal(t, tt.q.res, res)

			if !tt.wantMail {
				assert.Empty(t, emailsvc.SentMessages)
				return
			}
			require.Len(t, emailsvc.SentMessages, 1)
			msg := emailsvc.SentMessages[0]
			require.Len(t, msg.To, 1)
			assert.Equal(t, "ops@carline.test", msg.To[0].Address)
			assert.Contains(t, msg.TextContent, "2024-03-05 03:00 UTC")
			assert.Contains(t, msg.TextContent, "Failures: ")
		})
	}
}

func TestScheduler_RefreshMetrics(t *testing.T) {
	testutil.FreezeClock(t, time.Date(2024, 3, 1, 3, 30, 0, 0, time.UTC))
	m := &fakeMetrics{err: errors.New("ignored")}
	s := newScheduler(t, &fakeQueue{}, m)

	s.RefreshMetrics(context.Background())

	require.Len(t, m.days, 1)
	require.Len(t, m.months, 1, "a failed day refresh does not skip the month")
	assert.Equal(t, "2024-02-29", m.days[0].Format("2006-01-02"))
	assert.Equal(t, "2024-02", m.months[0].Format("2006-01"))
}

func TestScheduler_StartStop(t *testing.T) {
	s := newScheduler(t, &fakeQueue{}, &fakeMetrics{})
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
