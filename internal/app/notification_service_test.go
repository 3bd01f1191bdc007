package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplement_tracker/internal/domain/notification"
	"supplement_tracker/internal/domain/schedule"
	"supplement_tracker/internal/domain/supplement"
	domainTelegram "supplement_tracker/internal/domain/telegram"
	"supplement_tracker/internal/domain/user"
)

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := schedule.ParseDay(s)
	require.NoError(t, err)
	return d
}

func floatPtr(v float64) *float64 { return &v }

type notifFixture struct {
	users    *fakeUserRepo
	supps    *fakeSupplementRepo
	notifs   *fakeNotifRepo
	mailer   *fakeMailer
	telegram *fakeTelegram
	svc      *NotificationServiceImpl
}

func newNotifFixture(t *testing.T) *notifFixture {
	t.Helper()
	users := newFakeUserRepo(
		&user.User{ID: 1, Email: "alex@example.com", DisplayName: "Alex", Timezone: "UTC", NotificationsEnabled: true,
			TelegramChatID: sql.NullInt64{Int64: 77, Valid: true}},
		&user.User{ID: 2, Email: "bo@example.com", NotificationsEnabled: true},
		&user.User{ID: 3, Email: "quiet@example.com", Timezone: "UTC", NotificationsEnabled: false},
	)
	supps := newFakeSupplementRepo(
		&supplement.Supplement{ID: 10, UserID: 1, Name: "Ashwagandha", StartDate: mustDay(t, "2026-01-01"), Cycle: &schedule.Cycle{On: 5, Off: 2}},
		&supplement.Supplement{ID: 11, UserID: 1, Name: "Vitamin D", StartDate: mustDay(t, "2025-06-01")},
		&supplement.Supplement{ID: 12, UserID: 1, Name: "Rhodiola", StartDate: mustDay(t, "2026-01-06"), Cycle: &schedule.Cycle{On: 3, Off: 1}},
		&supplement.Supplement{ID: 20, UserID: 2, Name: "Zinc", StartDate: mustDay(t, "2026-01-01"), DosesPerDay: 1, Servings: floatPtr(8)},
		&supplement.Supplement{ID: 30, UserID: 3, Name: "Tongkat", StartDate: mustDay(t, "2026-01-01"), Cycle: &schedule.Cycle{On: 5, Off: 2}},
	)
	f := &notifFixture{
		users:    users,
		supps:    supps,
		notifs:   newFakeNotifRepo(),
		mailer:   &fakeMailer{fail: map[string]bool{}},
		telegram: &fakeTelegram{},
	}
	f.svc = NewNotificationServiceImpl(users, supps, f.notifs, f.mailer, f.telegram,
		schedule.FixedClock{Day: mustDay(t, "2026-01-05")},
		NotificationSettings{DefaultTimezone: "America/New_York", LowSupplyDays: 3},
		quietLogger())
	return f
}

func TestNotificationService_Preview(t *testing.T) {
	f := newNotifFixture(t)

	digests, err := f.svc.Preview(context.Background())
	require.NoError(t, err)
	require.Len(t, digests, 2)

	assert.Equal(t, int64(1), digests[0].User.ID)
	assert.Equal(t, mustDay(t, "2026-01-05"), digests[0].Today)
	require.Len(t, digests[0].Lines, 2)
	assert.Equal(t, notification.KindOnEndsTomorrow, digests[0].Lines[0].Kind)
	assert.Equal(t, "Ashwagandha", digests[0].Lines[0].SupplementName)
	assert.Equal(t, mustDay(t, "2026-01-06"), digests[0].Lines[0].EventDate)
	assert.Equal(t, notification.KindOnBeginsTomorrow, digests[0].Lines[1].Kind)
	assert.Equal(t, "Rhodiola", digests[0].Lines[1].SupplementName)

	assert.Equal(t, int64(2), digests[1].User.ID)
	require.Len(t, digests[1].Lines, 1)
	assert.Equal(t, notification.KindLowSupply, digests[1].Lines[0].Kind)
	assert.Equal(t, 3, digests[1].Lines[0].DaysLeft)

	assert.Empty(t, f.mailer.sent)
	assert.Empty(t, f.telegram.sent)
	assert.Empty(t, f.notifs.runs)
}

func TestNotificationService_RunDailySendsOncePerDay(t *testing.T) {
	f := newNotifFixture(t)
	ctx := context.Background()

	run, err := f.svc.RunDaily(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, run.SentCount)
	assert.Equal(t, 0, run.SkippedCount)
	assert.Equal(t, 0, run.FailedCount)
	require.NotNil(t, run.FinishedAt)
	assert.Equal(t, mustDay(t, "2026-01-05"), run.RunDate)

	require.Len(t, f.mailer.sent, 2)
	assert.Equal(t, "alex@example.com", f.mailer.sent[0].To)
	assert.Equal(t, "Supplement cycle changes for Tue, Jan 6", f.mailer.sent[0].Subject)
	assert.Contains(t, f.mailer.sent[0].Body, "Hi Alex,")
	assert.Contains(t, f.mailer.sent[0].Body, "Ashwagandha: OFF cycle begins tomorrow.")
	assert.Contains(t, f.mailer.sent[0].Body, "Rhodiola: ON cycle begins tomorrow.")
	assert.Equal(t, "bo@example.com", f.mailer.sent[1].To)
	assert.Contains(t, f.mailer.sent[1].Body, "Zinc: about 3 days of supply left.")

	require.Len(t, f.telegram.sent, 1)
	assert.Equal(t, int64(77), f.telegram.sent[0].chatID)
	assert.Len(t, f.notifs.deliveries, 5)

	again, err := f.svc.RunDaily(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.SentCount)
	assert.Equal(t, 5, again.SkippedCount)
	assert.Len(t, f.mailer.sent, 2)
	assert.Len(t, f.telegram.sent, 1)
	assert.NotEqual(t, run.ID, again.ID)
}

func TestNotificationService_FailedSendIsRetriedNextRun(t *testing.T) {
	f := newNotifFixture(t)
	ctx := context.Background()
	f.mailer.fail["bo@example.com"] = true

	run, err := f.svc.RunDaily(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, run.SentCount)
	assert.Equal(t, 1, run.FailedCount)

	f.mailer.fail["bo@example.com"] = false
	retry, err := f.svc.RunDaily(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, retry.SentCount)
	assert.Equal(t, "bo@example.com", f.mailer.sent[len(f.mailer.sent)-1].To)
}

func TestNotificationService_DeliveryLookupFailureCountsAsFailed(t *testing.T) {
	f := newNotifFixture(t)
	f.notifs.hasErr = errors.New("connection reset")

	run, err := f.svc.RunDaily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, run.SentCount)
	assert.Equal(t, 5, run.FailedCount)
	assert.Empty(t, f.mailer.sent)
}

func TestNotificationService_ListFailureAbortsRun(t *testing.T) {
	f := newNotifFixture(t)
	f.users.err = errors.New("db down")

	run, err := f.svc.RunDaily(context.Background())
	assert.ErrorContains(t, err, "db down")

	require.NotNil(t, run)
	stored, err := f.notifs.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.FinishedAt)
	assert.Contains(t, stored.Error, "db down")
	assert.Equal(t, "aborted", stored.Status())
	assert.Empty(t, f.mailer.sent)
}

func TestNotificationService_ChannelsAreOptional(t *testing.T) {
	f := newNotifFixture(t)
	svc := NewNotificationServiceImpl(f.users, f.supps, f.notifs, nil, nil,
		schedule.FixedClock{Day: mustDay(t, "2026-01-05")}, NotificationSettings{}, quietLogger())

	run, err := svc.RunDaily(context.Background())
	require.NoError(t, err)
	assert.Zero(t, run.SentCount)
	assert.Empty(t, f.notifs.deliveries)
}

func TestNotificationService_UnreachableChatIsSkipped(t *testing.T) {
	f := newNotifFixture(t)
	f.telegram.err = fmt.Errorf("%w: bot was blocked by the user", domainTelegram.ErrChatUnreachable)

	run, err := f.svc.RunDaily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, run.SentCount)
	assert.Equal(t, 2, run.SkippedCount)
	assert.Equal(t, 0, run.FailedCount)
	assert.Len(t, f.notifs.deliveries, 3)
}

func TestNotificationService_RecordWithoutScheduleDoesNotBlockOthers(t *testing.T) {
	f := newNotifFixture(t)
	// What a stored record with an unreadable start date and cycle loads as.
	_ = f.supps.Create(context.Background(), &supplement.Supplement{UserID: 1, Name: "Legacy"})
	_ = f.supps.Create(context.Background(), &supplement.Supplement{UserID: 2, Name: "Broken", Servings: floatPtr(10)})

	run, err := f.svc.RunDaily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, run.SentCount)
	assert.Zero(t, run.FailedCount)
	require.Len(t, f.mailer.sent, 2)
	assert.NotContains(t, f.mailer.sent[0].Body, "Legacy")
}

func TestRunStatus(t *testing.T) {
	run := notification.NewRun(mustDay(t, "2026-01-05"), time.Now())
	assert.Equal(t, "running", run.Status())

	now := time.Now()
	run.FinishedAt = &now
	assert.Equal(t, "finished", run.Status())

	run.Error = "db down"
	assert.Equal(t, "aborted", run.Status())
}
