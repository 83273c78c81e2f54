package services

import (
	"context"
	"sort"
	"strings"

	"github.com/saeid-a/CoachMarketBack/internal/models"
)

type CoachMatcher interface {
	ListAll(ctx context.Context) ([]models.Coach, error)
}

type TierLister interface {
	ListByCoachIDs(ctx context.Context, coachIDs []int64) (map[int64][]models.ServiceTier, error)
}

type MatchPreferences struct {
	Needs  []string
	Budget float64
}

type MatchmakingService struct {
	coachRepo CoachMatcher
	tierRepo  TierLister
}

func NewMatchmakingService(coachRepo CoachMatcher, tierRepo TierLister) *MatchmakingService {
	return &MatchmakingService{coachRepo: coachRepo, tierRepo: tierRepo}
}

func (s *MatchmakingService) GetMatchedCoaches(
	ctx context.Context,
	prefs MatchPreferences,
	limit int,
) ([]models.CoachMatch, error) {
	coaches, err := s.coachRepo.ListAll(ctx)
	if err != nil {
		return nil, storageError("list coaches", err)
	}

	coachIDs := make([]int64, 0, len(coaches))
	for _, coach := range coaches {
		coachIDs = append(coachIDs, coach.ID)
	}
	tiers, err := s.tierRepo.ListByCoachIDs(ctx, coachIDs)
	if err != nil {
		return nil, storageError("list service tiers", err)
	}

	matched := make([]models.CoachMatch, 0, len(coaches))
	for _, coach := range coaches {
		candidate := models.CoachWithTiers{Coach: coach, Tiers: tiers[coach.ID]}
		if candidate.Tiers == nil {
			candidate.Tiers = []models.ServiceTier{}
		}
		matched = append(matched, models.CoachMatch{
			CoachWithTiers: candidate,
			MatchScore:     calculateMatchScore(prefs, &candidate),
		})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].MatchScore == matched[j].MatchScore {
			return matched[i].AverageRating > matched[j].AverageRating
		}
		return matched[i].MatchScore > matched[j].MatchScore
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}

func calculateMatchScore(prefs MatchPreferences, coach *models.CoachWithTiers) int {
	score := 0
	expertise := expertiseTerms(coach.Expertise)

	for _, aliases := range needAliases(prefs.Needs) {
		for _, alias := range aliases {
			if _, ok := expertise[alias]; ok {
				score += 40
				break
			}
		}
	}

	if coach.AverageRating > 4.0 {
		score += 20
	}
	if prefs.Budget > 0 {
		if cheapest, ok := cheapestTier(coach.Tiers); ok && cheapest <= prefs.Budget {
			score += 15
		}
	}
	if len(coach.Tiers) > 0 {
		score += 10
	}

	return score
}

func needAliases(needs []string) map[string][]string {
	mapped := make(map[string][]string, len(needs))
	for _, need := range needs {
		switch normalize(need) {
		case "career", "career_coaching":
			mapped["career"] = []string{"career", "career_coaching", "interview_prep"}
		case "fitness", "personal_training":
			mapped["fitness"] = []string{"fitness", "personal_training", "strength_training"}
		case "public_speaking", "presentation":
			mapped["public_speaking"] = []string{"public_speaking", "presentation"}
		case "leadership", "management":
			mapped["leadership"] = []string{"leadership", "management", "executive_coaching"}
		default:
			if key := normalize(need); key != "" {
				mapped[key] = []string{key}
			}
		}
	}
	return mapped
}

// expertiseTerms splits the coach's free-text expertise on commas,
// semicolons and slashes.
func expertiseTerms(expertise *string) map[string]struct{} {
	terms := make(map[string]struct{})
	if expertise == nil {
		return terms
	}
	parts := strings.FieldsFunc(*expertise, func(r rune) bool {
		return r == ',' || r == ';' || r == '/'
	})
	for _, part := range parts {
		if key := normalize(part); key != "" {
			terms[key] = struct{}{}
		}
	}
	return terms
}

func cheapestTier(tiers []models.ServiceTier) (float64, bool) {
	if len(tiers) == 0 {
		return 0, false
	}
	cheapest := tiers[0].Price
	for _, tier := range tiers[1:] {
		if tier.Price < cheapest {
			cheapest = tier.Price
		}
	}
	return cheapest, true
}

func normalize(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	value = strings.Join(strings.Fields(value), "_")
	value = strings.ReplaceAll(value, "-", "_")
	return value
}
