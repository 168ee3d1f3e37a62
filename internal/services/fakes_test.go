package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"medcamp-backend/internal/models"
)

var errBoom = errors.New("connection reset by peer")

type fakeCampStore struct {
	mu          sync.Mutex
	camps       map[string]*models.Camp
	listErr     error
	getErr      error
	created     []models.Camp
	transitions []string
}

func newFakeCampStore(camps ...models.Camp) *fakeCampStore {
	s := &fakeCampStore{camps: make(map[string]*models.Camp)}
	for i := range camps {
		c := camps[i]
		s.camps[c.ID] = &c
	}
	return s
}

func (s *fakeCampStore) sorted(keep func(*models.Camp) bool) []models.Camp {
	out := []models.Camp{}
	for _, c := range s.camps {
		if keep(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (s *fakeCampStore) ListApproved(ctx context.Context) ([]models.Camp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.sorted(func(c *models.Camp) bool { return c.Status == models.CampStatusApproved }), nil
}

func (s *fakeCampStore) ListByDoctor(ctx context.Context, doctorID string) ([]models.Camp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.sorted(func(c *models.Camp) bool { return c.DoctorID == doctorID }), nil
}

func (s *fakeCampStore) ListApprovedBefore(ctx context.Context, day time.Time) ([]models.Camp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(func(c *models.Camp) bool {
		return c.Status == models.CampStatusApproved && c.Date.Before(day)
	}), nil
}

func (s *fakeCampStore) GetByID(ctx context.Context, id string) (*models.Camp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	c, ok := s.camps[id]
	if !ok {
		return nil, models.ErrCampNotFound
	}
	camp := *c
	return &camp, nil
}

func (s *fakeCampStore) Create(ctx context.Context, camp *models.Camp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *camp
	s.camps[c.ID] = &c
	s.created = append(s.created, c)
	return nil
}

func (s *fakeCampStore) Transition(ctx context.Context, id string, from, to models.CampStatus, actorID, reason *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.camps[id]
	if !ok || c.Status != from {
		return models.ErrInvalidTransition
	}
	c.Status = to
	c.RejectionReason = reason
	s.transitions = append(s.transitions, id+":"+string(to))
	return nil
}

func (s *fakeCampStore) adjustCount(id string, delta int, enforce bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.camps[id]
	if !ok {
		return models.ErrCampNotFound
	}
	if enforce && delta > 0 && c.RegisteredCount >= c.Capacity {
		return models.ErrCampFull
	}
	c.RegisteredCount = max(0, c.RegisteredCount+delta)
	return nil
}

type fakeProfileStore struct {
	mu          sync.Mutex
	profiles    map[string]*models.Profile
	doctors     map[string]*models.DoctorProfile
	getErr      error
	avatarURLs  map[string]string
	pushTokens  map[string]*string
	pushUpdates int
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{
		profiles:   make(map[string]*models.Profile),
		doctors:    make(map[string]*models.DoctorProfile),
		avatarURLs: make(map[string]string),
		pushTokens: make(map[string]*string),
	}
}

func (s *fakeProfileStore) addPatient(userID, name string) *models.Profile {
	p := &models.Profile{ID: "profile-" + userID, UserID: userID, FullName: name, UserType: models.UserTypePatient}
	s.profiles[userID] = p
	return p
}

func (s *fakeProfileStore) addDoctor(userID, doctorID string) *models.DoctorProfile {
	s.profiles[userID] = &models.Profile{ID: "profile-" + userID, UserID: userID, FullName: "Dr " + userID, UserType: models.UserTypeDoctor}
	d := &models.DoctorProfile{ID: doctorID, UserID: userID, ProfileID: "profile-" + userID, Specialization: "Cardiology"}
	s.doctors[userID] = d
	return d
}

func (s *fakeProfileStore) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	p, ok := s.profiles[userID]
	if !ok {
		return nil, models.ErrProfileNotFound
	}
	profile := *p
	if token, ok := s.pushTokens[userID]; ok {
		profile.PushToken = token
	}
	return &profile, nil
}

func (s *fakeProfileStore) GetDoctorByUserID(ctx context.Context, userID string) (*models.DoctorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.doctors[userID]
	if !ok {
		return nil, models.ErrProfileNotFound
	}
	doctor := *d
	return &doctor, nil
}

func (s *fakeProfileStore) GetUserIDByDoctorID(ctx context.Context, doctorID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, d := range s.doctors {
		if d.ID == doctorID {
			return userID, nil
		}
	}
	return "", models.ErrProfileNotFound
}

func (s *fakeProfileStore) UpdateAvatarURL(ctx context.Context, userID, avatarURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.avatarURLs[userID] = avatarURL
	return nil
}

func (s *fakeProfileStore) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushTokens[userID] = pushToken
	s.pushUpdates++
	return nil
}

// fakeRegistrationStore mirrors the conditional insert of the SQL store: the
// existence check and the write happen under one lock.
type fakeRegistrationStore struct {
	mu        sync.Mutex
	camps     *fakeCampStore
	regs      map[string]*models.Registration
	writes    int
	createErr error
	payments  []models.Payment
}

func newFakeRegistrationStore(camps *fakeCampStore) *fakeRegistrationStore {
	return &fakeRegistrationStore{camps: camps, regs: make(map[string]*models.Registration)}
}

func regKey(campID, userID string) string { return campID + "/" + userID }

func (s *fakeRegistrationStore) CreateIfAbsent(ctx context.Context, reg *models.Registration, enforceCapacity bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	key := regKey(reg.CampID, reg.UserID)
	if existing, ok := s.regs[key]; ok && existing.AttendanceStatus != models.AttendanceCancelled {
		return models.ErrAlreadyRegistered
	}
	if err := s.camps.adjustCount(reg.CampID, 1, enforceCapacity); err != nil {
		return err
	}
	r := *reg
	s.regs[key] = &r
	s.writes++
	return nil
}

func (s *fakeRegistrationStore) Cancel(ctx context.Context, campID, userID string) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.regs[regKey(campID, userID)]
	if !ok || r.AttendanceStatus == models.AttendanceCancelled {
		return nil, models.ErrRegistrationNotFound
	}
	r.AttendanceStatus = models.AttendanceCancelled
	s.writes++
	if err := s.camps.adjustCount(campID, -1, false); err != nil {
		return nil, err
	}
	reg := *r
	return &reg, nil
}

func (s *fakeRegistrationStore) GetByID(ctx context.Context, id string) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.regs {
		if r.ID == id {
			reg := *r
			return &reg, nil
		}
	}
	return nil, models.ErrRegistrationNotFound
}

func (s *fakeRegistrationStore) views(keep func(*models.Registration) bool) []models.RegistrationView {
	out := []models.RegistrationView{}
	for _, r := range s.regs {
		if keep(r) {
			out = append(out, models.RegistrationView{Registration: *r, RegistrantName: "name-" + r.UserID})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *fakeRegistrationStore) ListByUser(ctx context.Context, userID string) ([]models.RegistrationView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.views(func(r *models.Registration) bool { return r.UserID == userID }), nil
}

func (s *fakeRegistrationStore) ListByCamp(ctx context.Context, campID string) ([]models.RegistrationView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.views(func(r *models.Registration) bool { return r.CampID == campID }), nil
}

func (s *fakeRegistrationStore) CompletePayment(ctx context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.regs {
		if r.ID == payment.RegistrationID {
			if r.PaymentStatus != models.PaymentStatusPending {
				return models.ErrPaymentAlreadyCompleted
			}
			r.PaymentStatus = models.PaymentStatusCompleted
			r.PaymentID = &payment.ID
			s.payments = append(s.payments, *payment)
			s.writes++
			return nil
		}
	}
	return models.ErrRegistrationNotFound
}

func (s *fakeRegistrationStore) StatsByDoctor(ctx context.Context, doctorID string) (int, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camps.mu.Lock()
	defer s.camps.mu.Unlock()
	count, revenue := 0, 0.0
	for _, r := range s.regs {
		camp, ok := s.camps.camps[r.CampID]
		if !ok || camp.DoctorID != doctorID || r.AttendanceStatus == models.AttendanceCancelled {
			continue
		}
		count++
		if r.PaymentStatus == models.PaymentStatusCompleted {
			revenue += r.AmountPaid
		}
	}
	return count, revenue, nil
}

func (s *fakeRegistrationStore) get(campID, userID string) *models.Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.regs[regKey(campID, userID)]
	if !ok {
		return nil
	}
	reg := *r
	return &reg
}

func (s *fakeRegistrationStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

type fakeAccountStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	types    map[string]models.UserType
	profiles []models.Profile
	doctors  []models.DoctorProfile
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{users: make(map[string]*models.User), types: make(map[string]models.UserType)}
}

func (s *fakeAccountStore) CreateAccount(ctx context.Context, user *models.User, profile *models.Profile, doctor *models.DoctorProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return models.ErrEmailTaken
	}
	u := *user
	s.users[user.Email] = &u
	s.types[user.Email] = profile.UserType
	s.profiles = append(s.profiles, *profile)
	if doctor != nil {
		s.doctors = append(s.doctors, *doctor)
	}
	return nil
}

func (s *fakeAccountStore) GetByEmail(ctx context.Context, email string) (*models.User, models.UserType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, "", models.ErrUserNotFound
	}
	user := *u
	return &user, s.types[email], nil
}

type fakeNotificationStore struct {
	mu        sync.Mutex
	items     []models.Notification
	createErr error
	lastLimit int
}

func (s *fakeNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.items = append(s.items, *n)
	return nil
}

func (s *fakeNotificationStore) ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLimit = limit
	out := []models.Notification{}
	for _, n := range s.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *fakeNotificationStore) MarkRead(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id && s.items[i].UserID == userID {
			s.items[i].IsRead = true
			return nil
		}
	}
	return models.ErrNotificationNotFound
}

type sentNotice struct {
	userID string
	notice models.Notice
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotice
}

func (n *recordingNotifier) Notify(ctx context.Context, userID string, notice models.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotice{userID: userID, notice: notice})
}

func (n *recordingNotifier) all() []sentNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotice(nil), n.sent...)
}

func (n *recordingNotifier) forUser(userID string) []models.Notice {
	var out []models.Notice
	for _, s := range n.all() {
		if s.userID == userID {
			out = append(out, s.notice)
		}
	}
	return out
}

// keyTranslator renders every message as its key.
type keyTranslator struct{}

func (keyTranslator) T(locale, key string, data map[string]any) string { return key }

type countingRefresher struct {
	calls atomic.Int32
}

func (r *countingRefresher) RequestRefresh(ctx context.Context) { r.calls.Add(1) }

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
