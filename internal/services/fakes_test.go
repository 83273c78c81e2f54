package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachMarketBack/internal/models"
	"github.com/saeid-a/CoachMarketBack/internal/repository"
)

var fakeNow = time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)

// memoryStore holds committed rows for the fake unit of work.
type memoryStore struct {
	users     map[int64]string
	coaches   map[int64]models.Coach
	tiers     map[int64]models.ServiceTier
	inquiries map[int64]models.ServiceInquiry
	sessions  map[int64]models.Session
	ratings   map[int64]models.Rating // keyed by session id
	nextID    int64

	failSessionCreate error
	failUpsert        error
	failRecompute     error
	failLock          error

	// calls records rating-path repository calls in order.
	calls []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:     make(map[int64]string),
		coaches:   make(map[int64]models.Coach),
		tiers:     make(map[int64]models.ServiceTier),
		inquiries: make(map[int64]models.ServiceInquiry),
		sessions:  make(map[int64]models.Session),
		ratings:   make(map[int64]models.Rating),
		nextID:    1000,
	}
}

func (s *memoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

type storeSnapshot struct {
	coaches   map[int64]models.Coach
	tiers     map[int64]models.ServiceTier
	inquiries map[int64]models.ServiceInquiry
	sessions  map[int64]models.Session
	ratings   map[int64]models.Rating
	nextID    int64
}

func (s *memoryStore) snapshot() storeSnapshot {
	return storeSnapshot{
		coaches:   cloneMap(s.coaches),
		tiers:     cloneMap(s.tiers),
		inquiries: cloneMap(s.inquiries),
		sessions:  cloneMap(s.sessions),
		ratings:   cloneMap(s.ratings),
		nextID:    s.nextID,
	}
}

func (s *memoryStore) restore(snap storeSnapshot) {
	s.coaches = snap.coaches
	s.tiers = snap.tiers
	s.inquiries = snap.inquiries
	s.sessions = snap.sessions
	s.ratings = snap.ratings
	s.nextID = snap.nextID
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *memoryStore) addUser(id int64, name string) {
	s.users[id] = name
}

func (s *memoryStore) addCoach(id, userID int64, name string) {
	s.users[userID] = name
	s.coaches[id] = models.Coach{ID: id, UserID: userID, Username: name}
}

func (s *memoryStore) addTier(id, coachID int64, name string, price float64) {
	s.tiers[id] = models.ServiceTier{ID: id, CoachID: coachID, Name: name, Description: name, Price: price}
}

func (s *memoryStore) addSession(id, learnerID, coachID, tierID int64, status models.SessionStatus) {
	s.sessions[id] = models.Session{
		ID:            id,
		LearnerID:     learnerID,
		CoachID:       coachID,
		TierID:        tierID,
		ScheduledTime: fakeNow.Add(24 * time.Hour),
		Status:        status,
		CreatedAt:     fakeNow,
		UpdatedAt:     fakeNow,
	}
}

func (s *memoryStore) addRating(sessionID int64, value int) {
	s.ratings[sessionID] = models.Rating{ID: s.id(), SessionID: sessionID, RatingValue: value, CreatedAt: fakeNow}
}

func (s *memoryStore) detail(sessionID int64) (*models.SessionDetail, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	coach := s.coaches[session.CoachID]
	tier := s.tiers[session.TierID]
	detail := &models.SessionDetail{
		Session:     session,
		CoachUserID: coach.UserID,
		LearnerName: s.users[session.LearnerID],
		CoachName:   coach.Username,
		TierName:    tier.Name,
		TierPrice:   tier.Price,
	}
	if rating, ok := s.ratings[sessionID]; ok {
		detail.Rating = &rating
	}
	return detail, nil
}

type fakeUnitOfWork struct {
	store     *memoryStore
	commits   int
	rollbacks int
}

func (u *fakeUnitOfWork) Within(_ context.Context, fn func(repos TxRepositories) error) error {
	snap := u.store.snapshot()
	err := fn(TxRepositories{
		Sessions:  &fakeSessionRepo{store: u.store},
		Ratings:   &fakeRatingRepo{store: u.store},
		Coaches:   &fakeCoachRepo{store: u.store},
		Tiers:     &fakeTierRepo{store: u.store},
		Inquiries: &fakeInquiryRepo{store: u.store},
	})
	if err != nil {
		u.store.restore(snap)
		u.rollbacks++
		return err
	}
	u.commits++
	return nil
}

type fakeSessionRepo struct {
	store *memoryStore
}

func (r *fakeSessionRepo) Create(_ context.Context, input repository.CreateSessionInput) (*models.Session, error) {
	if r.store.failSessionCreate != nil {
		return nil, r.store.failSessionCreate
	}
	session := models.Session{
		ID:            r.store.id(),
		InquiryID:     input.InquiryID,
		LearnerID:     input.LearnerID,
		CoachID:       input.CoachID,
		TierID:        input.TierID,
		ScheduledTime: input.ScheduledTime,
		Status:        models.SessionStatusScheduled,
		CreatedAt:     fakeNow,
		UpdatedAt:     fakeNow,
	}
	r.store.sessions[session.ID] = session
	return &session, nil
}

func (r *fakeSessionRepo) GetDetail(_ context.Context, sessionID int64) (*models.SessionDetail, error) {
	return r.store.detail(sessionID)
}

func (r *fakeSessionRepo) GetDetailForUpdate(_ context.Context, sessionID int64) (*models.SessionDetail, error) {
	return r.store.detail(sessionID)
}

func (r *fakeSessionRepo) UpdateStatusIfCurrent(
	_ context.Context,
	sessionID int64,
	currentStatus models.SessionStatus,
	nextStatus models.SessionStatus,
) (*models.Session, error) {
	session, ok := r.store.sessions[sessionID]
	if !ok || session.Status != currentStatus {
		return nil, pgx.ErrNoRows
	}
	session.Status = nextStatus
	session.UpdatedAt = fakeNow.Add(time.Minute)
	r.store.sessions[sessionID] = session
	return &session, nil
}

func (r *fakeSessionRepo) List(_ context.Context, filter repository.SessionListFilter) ([]models.SessionDetail, error) {
	result := make([]models.SessionDetail, 0)
	for id := range r.store.sessions {
		detail, _ := r.store.detail(id)
		if !detail.IsParty(filter.ActorID) {
			continue
		}
		if filter.Status != "" && string(detail.Status) != filter.Status {
			continue
		}
		result = append(result, *detail)
	}
	return result, nil
}

type fakeRatingRepo struct {
	store *memoryStore
}

func (r *fakeRatingRepo) Upsert(_ context.Context, input repository.UpsertRatingInput) (*models.Rating, error) {
	r.store.calls = append(r.store.calls, "upsert rating")
	if r.store.failUpsert != nil {
		return nil, r.store.failUpsert
	}
	rating, ok := r.store.ratings[input.SessionID]
	if !ok {
		rating = models.Rating{ID: r.store.id(), SessionID: input.SessionID}
	}
	rating.RatingValue = input.RatingValue
	rating.Feedback = input.Feedback
	rating.CreatedAt = fakeNow.Add(time.Hour)
	r.store.ratings[input.SessionID] = rating
	return &rating, nil
}

type fakeCoachRepo struct {
	store *memoryStore
}

func (r *fakeCoachRepo) GetByID(_ context.Context, coachID int64) (*models.Coach, error) {
	coach, ok := r.store.coaches[coachID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &coach, nil
}

func (r *fakeCoachRepo) GetByUserID(_ context.Context, userID int64) (*models.Coach, error) {
	for _, coach := range r.store.coaches {
		if coach.UserID == userID {
			return &coach, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeCoachRepo) LockForUpdate(_ context.Context, coachID int64) error {
	r.store.calls = append(r.store.calls, "lock coach")
	if r.store.failLock != nil {
		return r.store.failLock
	}
	if _, ok := r.store.coaches[coachID]; !ok {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *fakeCoachRepo) RecomputeAverageRating(_ context.Context, coachID int64) (float64, error) {
	r.store.calls = append(r.store.calls, "recompute average")
	if r.store.failRecompute != nil {
		return 0, r.store.failRecompute
	}
	coach, ok := r.store.coaches[coachID]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	sum, count := 0, 0
	for sessionID, rating := range r.store.ratings {
		if r.store.sessions[sessionID].CoachID == coachID {
			sum += rating.RatingValue
			count++
		}
	}
	average := 0.0
	if count > 0 {
		average = math.Round(float64(sum)/float64(count)*100) / 100
	}
	coach.AverageRating = average
	r.store.coaches[coachID] = coach
	return average, nil
}

type fakeTierRepo struct {
	store *memoryStore
}

func (r *fakeTierRepo) GetByID(_ context.Context, tierID int64) (*models.ServiceTier, error) {
	tier, ok := r.store.tiers[tierID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &tier, nil
}

type fakeInquiryRepo struct {
	store *memoryStore
}

func (r *fakeInquiryRepo) Create(_ context.Context, input repository.CreateInquiryInput) (*models.ServiceInquiry, error) {
	inquiry := models.ServiceInquiry{
		ID:        r.store.id(),
		UserID:    input.UserID,
		CoachID:   input.CoachID,
		TierID:    input.TierID,
		Status:    input.Status,
		CreatedAt: fakeNow,
	}
	r.store.inquiries[inquiry.ID] = inquiry
	return &inquiry, nil
}

type recordingPublisher struct {
	events []models.SessionEvent
}

func (p *recordingPublisher) PublishSessionEvent(event models.SessionEvent) {
	p.events = append(p.events, event)
}

type transitionRecord struct {
	status  string
	outcome string
}

type recordingMetrics struct {
	transitions []transitionRecord
	bookings    []string
	ratings     []int
	averages    []float64
}

func (m *recordingMetrics) RecordTransition(status string, outcome string) {
	m.transitions = append(m.transitions, transitionRecord{status: status, outcome: outcome})
}

func (m *recordingMetrics) RecordBooking(outcome string) {
	m.bookings = append(m.bookings, outcome)
}

func (m *recordingMetrics) RecordRating(value int, coachAverage float64) {
	m.ratings = append(m.ratings, value)
	m.averages = append(m.averages, coachAverage)
}

var errDiskFull = errors.New("disk full")

func intPtr(value int) *int {
	return &value
}

func strPtr(value string) *string {
	return &value
}
