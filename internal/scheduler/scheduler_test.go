package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/reeezaw1/rzarmndrv01/internal/domain"
)

// fakeRepo is an in-memory store.Repo for scheduler tests.
type fakeRepo struct {
	mu        sync.Mutex
	reminders map[int64]*domain.Reminder
	listErr   error
}

func newFakeRepo(rs ...*domain.Reminder) *fakeRepo {
	f := &fakeRepo{reminders: map[int64]*domain.Reminder{}}
	for _, r := range rs {
		f.reminders[r.ID] = r
	}
	return f
}

func (f *fakeRepo) CreateUser(context.Context, int64, string) (*domain.User, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeRepo) GetUser(context.Context, int64) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}
func (f *fakeRepo) SetTimeZone(context.Context, int64, string) error { return nil }
func (f *fakeRepo) CreateReminder(_ context.Context, r *domain.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders[r.ID] = r
	return nil
}
func (f *fakeRepo) ListUserReminders(context.Context, int64) ([]domain.Reminder, error) {
	return nil, nil
}
func (f *fakeRepo) ListActiveReminders(context.Context) ([]domain.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var res []domain.Reminder
	for _, r := range f.reminders {
		if r.Status == domain.StatusActive {
			res = append(res, *r)
		}
	}
	return res, nil
}
func (f *fakeRepo) UpdateReminderStatus(_ context.Context, id int64, status domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[id]
	if !ok {
		return domain.ErrReminderNotFound
	}
	r.Status = status
	return nil
}
func (f *fakeRepo) Close() {}

func (f *fakeRepo) status(id int64) domain.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reminders[id].Status
}

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []int64 // chat IDs in delivery order
	fail  bool
	calls int
}

func (n *fakeNotifier) Notify(chatID int64, taskName, description string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.fail {
		return errors.New("telegram unavailable")
	}
	n.sent = append(n.sent, chatID)
	return nil
}

func (n *fakeNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func onceReminder(id, chatID int64, at time.Time) *domain.Reminder {
	payload, _ := json.Marshal(domain.OncePayload{DateTime: at.Format(time.RFC3339)})
	return &domain.Reminder{
		ID:           id,
		UserID:       chatID,
		TaskName:     fmt.Sprintf("task-%d", id),
		ScheduleType: domain.ScheduleOnce,
		ScheduleData: payload,
		TimeZone:     "UTC",
		Status:       domain.StatusActive,
	}
}

func dailyReminder(id, chatID int64, hhmm, tz string) *domain.Reminder {
	payload, _ := json.Marshal(domain.DailyPayload{Time: hhmm})
	return &domain.Reminder{
		ID:           id,
		UserID:       chatID,
		TaskName:     fmt.Sprintf("task-%d", id),
		ScheduleType: domain.ScheduleDaily,
		ScheduleData: payload,
		TimeZone:     tz,
		Status:       domain.StatusActive,
	}
}

func TestTick_OnceFiresAndCompletes(t *testing.T) {
	at := time.Date(2024, time.September, 15, 18, 30, 0, 0, time.UTC)
	repo := newFakeRepo(onceReminder(1, 100, at))
	notifier := &fakeNotifier{}
	s := New(repo, zap.NewNop(), notifier, time.Minute)

	s.tick(context.Background(), at.Add(time.Minute))

	if got := notifier.sentCount(); got != 1 {
		t.Fatalf("sent %d notifications, want 1", got)
	}
	if repo.status(1) != domain.StatusCompleted {
		t.Fatalf("status = %s, want completed", repo.status(1))
	}

	// Immediate second pass must not notify again: the row is completed.
	s.tick(context.Background(), at.Add(time.Minute))
	if got := notifier.sentCount(); got != 1 {
		t.Fatalf("second pass double-notified: %d sends", got)
	}
}

func TestTick_OnceNotDueBeforeInstant(t *testing.T) {
	at := time.Date(2024, time.September, 15, 18, 30, 0, 0, time.UTC)
	repo := newFakeRepo(onceReminder(1, 100, at))
	notifier := &fakeNotifier{}
	s := New(repo, zap.NewNop(), notifier, time.Minute)

	s.tick(context.Background(), at.Add(-time.Minute))

	if got := notifier.sentCount(); got != 0 {
		t.Fatalf("sent %d notifications before the instant", got)
	}
	if repo.status(1) != domain.StatusActive {
		t.Fatal("reminder must stay active")
	}
}

func TestTick_DailyFiresOncePerMatchingMinute(t *testing.T) {
	repo := newFakeRepo(dailyReminder(1, 100, "09:00", "UTC"))
	notifier := &fakeNotifier{}
	s := New(repo, zap.NewNop(), notifier, time.Minute)

	day := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	s.tick(context.Background(), day)
	if got := notifier.sentCount(); got != 1 {
		t.Fatalf("09:00 pass: %d sends, want 1", got)
	}

	s.tick(context.Background(), day.Add(time.Minute))
	if got := notifier.sentCount(); got != 1 {
		t.Fatalf("09:01 pass re-fired: %d sends", got)
	}

	// Recurring reminders never complete.
	if repo.status(1) != domain.StatusActive {
		t.Fatal("daily reminder must stay active")
	}

	// Next day, same minute: fires again.
	s.tick(context.Background(), day.Add(24*time.Hour))
	if got := notifier.sentCount(); got != 2 {
		t.Fatalf("next-day pass: %d sends, want 2", got)
	}
}

func TestTick_MalformedPayloadDoesNotAbortBatch(t *testing.T) {
	at := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	broken := &domain.Reminder{
		ID:           1,
		UserID:       100,
		TaskName:     "broken",
		ScheduleType: domain.ScheduleDaily,
		ScheduleData: json.RawMessage(`{}`), // missing time key
		TimeZone:     "UTC",
		Status:       domain.StatusActive,
	}
	repo := newFakeRepo(broken, onceReminder(2, 200, at))
	notifier := &fakeNotifier{}
	s := New(repo, zap.NewNop(), notifier, time.Minute)

	s.tick(context.Background(), at)

	if got := notifier.sentCount(); got != 1 {
		t.Fatalf("healthy reminder not delivered: %d sends", got)
	}
	if notifier.sent[0] != 200 {
		t.Fatalf("delivered to %d, want 200", notifier.sent[0])
	}
	// The broken reminder stays active for future ticks.
	if repo.status(1) != domain.StatusActive {
		t.Fatal("broken reminder must stay active")
	}
}

func TestTick_UnresolvableZoneSkipped(t *testing.T) {
	repo := newFakeRepo(dailyReminder(1, 100, "09:00", "Mars/Olympus_Mons"))
	notifier := &fakeNotifier{}
	s := New(repo, zap.NewNop(), notifier, time.Minute)

	s.tick(context.Background(), time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC))

	if got := notifier.sentCount(); got != 0 {
		t.Fatalf("sent %d notifications for unresolvable zone", got)
	}
	if repo.status(1) != domain.StatusActive {
		t.Fatal("reminder must stay active")
	}
}

func TestTick_NotifyFailureLeavesOnceActive(t *testing.T) {
	at := time.Date(2024, time.September, 15, 18, 30, 0, 0, time.UTC)
	repo := newFakeRepo(onceReminder(1, 100, at))
	notifier := &fakeNotifier{fail: true}
	s := New(repo, zap.NewNop(), notifier, time.Minute)

	s.tick(context.Background(), at)

	if repo.status(1) != domain.StatusActive {
		t.Fatal("failed delivery must not complete the reminder")
	}

	// Delivery recovers: the next tick retries and completes.
	notifier.fail = false
	s.tick(context.Background(), at.Add(time.Minute))
	if got := notifier.sentCount(); got != 1 {
		t.Fatalf("retry pass: %d sends, want 1", got)
	}
	if repo.status(1) != domain.StatusCompleted {
		t.Fatal("reminder must complete after successful retry")
	}
}

func TestTick_ListErrorAbortsPassOnly(t *testing.T) {
	repo := newFakeRepo(dailyReminder(1, 100, "09:00", "UTC"))
	repo.listErr = errors.New("connection refused")
	notifier := &fakeNotifier{}
	s := New(repo, zap.NewNop(), notifier, time.Minute)

	now := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	s.tick(context.Background(), now) // must not panic

	repo.mu.Lock()
	repo.listErr = nil
	repo.mu.Unlock()
	s.tick(context.Background(), now)
	if got := notifier.sentCount(); got != 1 {
		t.Fatalf("recovered pass: %d sends, want 1", got)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	repo := newFakeRepo()
	s := New(repo, zap.NewNop(), &fakeNotifier{}, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestTick_ManyRemindersAllEvaluated(t *testing.T) {
	at := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	var rs []*domain.Reminder
	for i := int64(1); i <= 50; i++ {
		rs = append(rs, onceReminder(i, 1000+i, at))
	}
	repo := newFakeRepo(rs...)
	notifier := &fakeNotifier{}
	s := New(repo, zap.NewNop(), notifier, time.Minute)

	s.tick(context.Background(), at)

	if got := notifier.sentCount(); got != 50 {
		t.Fatalf("delivered %d, want 50", got)
	}
	for i := int64(1); i <= 50; i++ {
		if repo.status(i) != domain.StatusCompleted {
			t.Fatalf("reminder %d not completed", i)
		}
	}
}
