package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atelierhq/planner-api/internal/dto"
	"github.com/atelierhq/planner-api/internal/models"
	appErrors "github.com/atelierhq/planner-api/pkg/errors"
)

const (
	slotInstructorLimit = 5
	longLeadDays        = 56
	shortLeadDays       = 28
)

type slotLocationReader interface {
	ListActive(ctx context.Context) ([]models.Location, error)
}

type slotTypeReader interface {
	FindByID(ctx context.Context, id string) (*models.WorkshopType, error)
	AllowedLocationIDs(ctx context.Context, typeID string) ([]string, error)
	QualifiedPersonIDs(ctx context.Context, typeID string) ([]string, error)
}

type slotPersonReader interface {
	ListActiveInstructors(ctx context.Context) ([]models.Person, error)
}

type slotWorkshopReader interface {
	OccupiedDates(ctx context.Context, from, to time.Time) ([]models.LocationBusyDate, error)
}

type slotAssignmentReader interface {
	BusyDates(ctx context.Context, from, to time.Time) ([]models.PersonBusyDate, error)
}

type slotAvailabilityReader interface {
	MapByPersonAndRange(ctx context.Context, from, to time.Time) (map[string][]models.Availability, error)
}

// SlotService searches open (date, venue) pairs and scores them for the
// planner.
type SlotService struct {
	locations      slotLocationReader
	types          slotTypeReader
	people         slotPersonReader
	workshops      slotWorkshopReader
	assignments    slotAssignmentReader
	availabilities slotAvailabilityReader
	cache          advisoryCache
	cacheTTL       time.Duration
	resultLimit    int
	validator      *validator.Validate
	logger         *zap.Logger
	now            func() time.Time
}

// NewSlotService instantiates SlotService.
func NewSlotService(
	locations slotLocationReader,
	types slotTypeReader,
	people slotPersonReader,
	workshops slotWorkshopReader,
	assignments slotAssignmentReader,
	availabilities slotAvailabilityReader,
	cache advisoryCache,
	cacheTTL time.Duration,
	resultLimit int,
	validate *validator.Validate,
	logger *zap.Logger,
) *SlotService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if resultLimit <= 0 {
		resultLimit = 20
	}
	return &SlotService{
		locations:      locations,
		types:          types,
		people:         people,
		workshops:      workshops,
		assignments:    assignments,
		availabilities: availabilities,
		cache:          cache,
		cacheTTL:       cacheTTL,
		resultLimit:    resultLimit,
		validator:      validate,
		logger:         logger,
		now:            time.Now,
	}
}

// FindAvailableSlots enumerates every open day-venue combination in the
// period and returns the highest scoring ones, best first.
func (s *SlotService) FindAvailableSlots(ctx context.Context, query dto.SlotQuery) ([]models.Slot, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot query")
	}
	from, err := time.Parse(dateLayout, query.From)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must be formatted as YYYY-MM-DD")
	}
	to, err := time.Parse(dateLayout, query.To)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must be formatted as YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not precede from")
	}

	cacheKey := fmt.Sprintf("%s:%s:%s:%s:%s", slotCachePrefix, query.TypeID, query.LocationID, query.From, query.To)
	if s.cache != nil {
		var cached []models.Slot
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("slot cache read failed", zap.Error(err))
		}
	}

	locations, err := s.candidateLocations(ctx, query)
	if err != nil {
		return nil, err
	}

	instructors, qualified, err := s.candidateInstructors(ctx, query.TypeID)
	if err != nil {
		return nil, err
	}

	occupiedRows, err := s.workshops.OccupiedDates(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load venue occupancy")
	}
	occupied := make(map[string]bool, len(occupiedRows))
	for _, row := range occupiedRows {
		occupied[row.LocationID+"|"+row.StartDate.Format(dateLayout)] = true
	}

	busyRows, err := s.assignments.BusyDates(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor bookings")
	}
	busy := make(map[string]bool, len(busyRows))
	for _, row := range busyRows {
		busy[row.PersonID+"|"+row.StartDate.Format(dateLayout)] = true
	}

	availabilityByPerson, err := s.availabilities.MapByPersonAndRange(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability windows")
	}

	slots := make([]models.Slot, 0)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		dayKey := day.Format(dateLayout)

		for i := range locations {
			loc := &locations[i]
			if !loc.OperatesOn(day.Weekday()) {
				continue
			}
			if occupied[loc.ID+"|"+dayKey] {
				continue
			}

			available := s.availableOn(day, dayKey, instructors, qualified, busy, availabilityByPerson)
			if len(available) == 0 {
				continue
			}

			refs := make([]models.PersonRef, 0, slotInstructorLimit)
			for _, p := range available {
				if len(refs) == slotInstructorLimit {
					break
				}
				refs = append(refs, models.PersonRef{ID: p.ID, Name: p.Name})
			}

			slots = append(slots, models.Slot{
				Date:                 day,
				Day:                  strings.ToLower(day.Weekday().String()),
				Location:             models.LocationRef{ID: loc.ID, Code: loc.Code, Name: loc.Name},
				AvailableInstructors: refs,
				Score:                s.scoreSlot(day, loc, available),
			})
		}
	}

	// Stable keeps ties in enumeration order: date ascending, then venue.
	sort.SliceStable(slots, func(a, b int) bool {
		return slots[a].Score > slots[b].Score
	})
	if len(slots) > s.resultLimit {
		slots = slots[:s.resultLimit]
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, slots, s.cacheTTL); err != nil {
			s.logger.Warn("slot cache write failed", zap.Error(err))
		}
	}

	return slots, nil
}

func (s *SlotService) candidateLocations(ctx context.Context, query dto.SlotQuery) ([]models.Location, error) {
	locations, err := s.locations.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load locations")
	}
	if query.LocationID != "" {
		filtered := locations[:0]
		for _, loc := range locations {
			if loc.ID == query.LocationID {
				filtered = append(filtered, loc)
			}
		}
		locations = filtered
	}

	if query.TypeID != "" {
		if _, err := s.types.FindByID(ctx, query.TypeID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop type not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop type")
		}
		allowedIDs, err := s.types.AllowedLocationIDs(ctx, query.TypeID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allowed locations")
		}
		allowed := make(map[string]bool, len(allowedIDs))
		for _, id := range allowedIDs {
			allowed[id] = true
		}
		filtered := locations[:0]
		for _, loc := range locations {
			if allowed[loc.ID] {
				filtered = append(filtered, loc)
			}
		}
		locations = filtered
	}

	return locations, nil
}

func (s *SlotService) candidateInstructors(ctx context.Context, typeID string) ([]models.Person, map[string]bool, error) {
	instructors, err := s.people.ListActiveInstructors(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructors")
	}

	var qualified map[string]bool
	if typeID != "" {
		ids, err := s.types.QualifiedPersonIDs(ctx, typeID)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load qualifications")
		}
		qualified = make(map[string]bool, len(ids))
		for _, id := range ids {
			qualified[id] = true
		}
	}
	return instructors, qualified, nil
}

func (s *SlotService) availableOn(day time.Time, dayKey string, instructors []models.Person, qualified map[string]bool, busy map[string]bool, availability map[string][]models.Availability) []models.Person {
	var available []models.Person
	for _, p := range instructors {
		if qualified != nil && !qualified[p.ID] {
			continue
		}
		if busy[p.ID+"|"+dayKey] {
			continue
		}
		if isBlocked(availability[p.ID], day) {
			continue
		}
		available = append(available, p)
	}
	return available
}

func isBlocked(windows []models.Availability, day time.Time) bool {
	for i := range windows {
		if windows[i].Type == models.AvailabilityUnavailable && windows[i].Covers(day) {
			return true
		}
	}
	return false
}

// scoreSlot rates a slot: base 1.0, plus 0.1 per instructor preferring this
// venue, a lead-time bonus, and 0.05 per available instructor capped at 5.
func (s *SlotService) scoreSlot(day time.Time, loc *models.Location, available []models.Person) float64 {
	score := 1.0

	for _, p := range available {
		if p.PreferredLocationID != nil && *p.PreferredLocationID == loc.ID {
			score += 0.1
		}
	}

	daysAhead := int(day.Sub(truncateToDay(s.now())).Hours() / 24)
	if daysAhead > longLeadDays {
		score += 0.3
	} else if daysAhead > shortLeadDays {
		score += 0.2
	}

	score += float64(min(len(available), slotInstructorLimit)) * 0.05

	return math.Round(score*100) / 100
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
