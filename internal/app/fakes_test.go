package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"supplement_tracker/internal/domain/mail"
	"supplement_tracker/internal/domain/notification"
	"supplement_tracker/internal/domain/supplement"
	"supplement_tracker/internal/domain/user"
	idb "supplement_tracker/internal/infra/database"
)

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(&bytes.Buffer{})
	return logrus.NewEntry(l)
}

type fakeUserRepo struct {
	users  map[int64]*user.User
	nextID int64
	err    error
}

func newFakeUserRepo(users ...*user.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[int64]*user.User{}}
	for _, u := range users {
		r.nextID++
		if u.ID == 0 {
			u.ID = r.nextID
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return idb.ErrDuplicateEmail
		}
	}
	r.nextID++
	u.ID = r.nextID
	u.Email = strings.ToLower(u.Email)
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*user.User, error) {
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, idb.ErrUserNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, idb.ErrUserNotFound
}

func (r *fakeUserRepo) GetByTelegramChatID(_ context.Context, chatID int64) (*user.User, error) {
	for _, u := range r.users {
		if u.TelegramChatID.Valid && u.TelegramChatID.Int64 == chatID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, idb.ErrUserNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, u *user.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return idb.ErrUserNotFound
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) ListNotifiable(context.Context) ([]*user.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*user.User
	for _, u := range r.users {
		if u.NotificationsEnabled {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeSupplementRepo struct {
	items  map[int64]*supplement.Supplement
	nextID int64
}

func newFakeSupplementRepo(items ...*supplement.Supplement) *fakeSupplementRepo {
	r := &fakeSupplementRepo{items: map[int64]*supplement.Supplement{}}
	for _, s := range items {
		r.nextID++
		if s.ID == 0 {
			s.ID = r.nextID
		}
		r.items[s.ID] = s
	}
	return r
}

func (r *fakeSupplementRepo) Create(_ context.Context, s *supplement.Supplement) error {
	r.nextID++
	s.ID = r.nextID
	cp := *s
	r.items[s.ID] = &cp
	return nil
}

func (r *fakeSupplementRepo) GetByID(_ context.Context, id int64) (*supplement.Supplement, error) {
	if s, ok := r.items[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, idb.ErrSupplementNotFound
}

func (r *fakeSupplementRepo) Update(_ context.Context, s *supplement.Supplement) error {
	if _, ok := r.items[s.ID]; !ok {
		return idb.ErrSupplementNotFound
	}
	cp := *s
	r.items[s.ID] = &cp
	return nil
}

func (r *fakeSupplementRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return idb.ErrSupplementNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeSupplementRepo) ListByUser(_ context.Context, userID int64) ([]*supplement.Supplement, error) {
	var out []*supplement.Supplement
	for _, s := range r.items {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeSupplementRepo) ListByUsers(ctx context.Context, userIDs []int64) (map[int64][]*supplement.Supplement, error) {
	out := map[int64][]*supplement.Supplement{}
	for _, id := range userIDs {
		list, _ := r.ListByUser(ctx, id)
		if len(list) > 0 {
			out[id] = list
		}
	}
	return out, nil
}

type fakeNotifRepo struct {
	runs       map[uuid.UUID]*notification.Run
	deliveries map[string]*notification.Delivery
	hasErr     error
}

func newFakeNotifRepo() *fakeNotifRepo {
	return &fakeNotifRepo{runs: map[uuid.UUID]*notification.Run{}, deliveries: map[string]*notification.Delivery{}}
}

func deliveryKey(userID, supplementID int64, kind notification.Kind, eventDate time.Time, channel notification.Channel) string {
	return fmt.Sprintf("%d/%d/%s/%s/%s", userID, supplementID, kind, eventDate.Format("2006-01-02"), channel)
}

func (r *fakeNotifRepo) CreateRun(_ context.Context, run *notification.Run) error {
	r.runs[run.ID] = run
	return nil
}

func (r *fakeNotifRepo) FinishRun(_ context.Context, run *notification.Run) error {
	if _, ok := r.runs[run.ID]; !ok {
		return idb.ErrRunNotFound
	}
	r.runs[run.ID] = run
	return nil
}

func (r *fakeNotifRepo) GetRun(_ context.Context, id uuid.UUID) (*notification.Run, error) {
	if run, ok := r.runs[id]; ok {
		return run, nil
	}
	return nil, idb.ErrRunNotFound
}

func (r *fakeNotifRepo) ListRecentRuns(context.Context, int) ([]*notification.Run, error) {
	var out []*notification.Run
	for _, run := range r.runs {
		out = append(out, run)
	}
	return out, nil
}

func (r *fakeNotifRepo) HasDelivery(_ context.Context, userID, supplementID int64, kind notification.Kind, eventDate time.Time, channel notification.Channel) (bool, error) {
	if r.hasErr != nil {
		return false, r.hasErr
	}
	_, ok := r.deliveries[deliveryKey(userID, supplementID, kind, eventDate, channel)]
	return ok, nil
}

func (r *fakeNotifRepo) RecordDelivery(_ context.Context, d *notification.Delivery) error {
	key := deliveryKey(d.UserID, d.SupplementID, d.Kind, d.EventDate, d.Channel)
	if _, ok := r.deliveries[key]; ok {
		return idb.ErrDeliveryExists
	}
	r.deliveries[key] = d
	return nil
}

type fakeMailer struct {
	sent []mail.Message
	fail map[string]bool
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	if m.fail[msg.To] {
		return errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

type sentTelegram struct {
	chatID int64
	text   string
}

type fakeTelegram struct {
	sent []sentTelegram
	err  error
}

func (f *fakeTelegram) SendMessage(chatID int64, text string, _ *telebot.SendOptions) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentTelegram{chatID: chatID, text: text})
	return nil
}
