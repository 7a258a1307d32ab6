package games

import (
	"context"
	"sort"

	"github.com/Silver7Surfer/adminbackend/internal/domain"
)

// ListGameProfiles returns every game profile the caller may see,
// decorated with the owning user's data.
func (s *Service) ListGameProfiles(ctx context.Context, admin domain.AdminIdentity) ([]domain.GameProfileView, error) {
	userIDs, err := s.scope.VisibleUserIDs(ctx, admin)
	if err != nil {
		return nil, err
	}
	if userIDs != nil && len(userIDs) == 0 {
		return []domain.GameProfileView{}, nil
	}

	profiles, err := s.profiles.ListByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	userMap, err := s.userMapFor(ctx, profiles)
	if err != nil {
		return nil, err
	}

	views := make([]domain.GameProfileView, 0, len(profiles))
	for _, p := range profiles {
		views = append(views, domain.GameProfileView{
			GameProfile: *p,
			UserData:    userMap[p.UserID],
		})
	}
	return views, nil
}

// GameStatistics aggregates profile counts and pending requests across
// the caller's scope with a per-game breakdown.
func (s *Service) GameStatistics(ctx context.Context, admin domain.AdminIdentity) (*domain.GameStatistics, error) {
	stats := domain.NewGameStatistics()

	userIDs, err := s.scope.VisibleUserIDs(ctx, admin)
	if err != nil {
		return nil, err
	}
	if userIDs != nil && len(userIDs) == 0 {
		return stats, nil
	}

	profiles, err := s.profiles.ListByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	for _, p := range profiles {
		stats.TotalProfiles++

		switch p.ProfileStatus {
		case domain.ProfileStatusActive:
			stats.TotalActiveProfiles++
		case domain.ProfileStatusPending:
			stats.TotalPendingProfiles++
		}

		switch p.CreditStatus {
		case domain.CreditStatusPending:
			stats.PendingCreditRequests++
		case domain.CreditStatusPendingRedeem:
			stats.PendingRedeemRequests++
		}

		breakdown := stats.GameBreakdown[p.GameName]
		if breakdown == nil {
			breakdown = &domain.GameBreakdown{}
			stats.GameBreakdown[p.GameName] = breakdown
		}

		breakdown.Total++
		switch p.ProfileStatus {
		case domain.ProfileStatusActive:
			breakdown.Active++
		case domain.ProfileStatusPending:
			breakdown.Pending++
		}
		breakdown.TotalCredit = breakdown.TotalCredit.Add(p.CreditAmount)
		switch p.CreditStatus {
		case domain.CreditStatusPending:
			breakdown.PendingCreditRequests++
		case domain.CreditStatusPendingRedeem:
			breakdown.PendingRedeemRequests++
		}
	}

	return stats, nil
}

// PendingRequests returns the three admin work queues (new profiles,
// credit requests, redeem requests), each sorted newest first.
func (s *Service) PendingRequests(ctx context.Context, admin domain.AdminIdentity) (*domain.PendingRequests, error) {
	pending := &domain.PendingRequests{
		Profiles:       []domain.PendingProfileRequest{},
		CreditRequests: []domain.PendingCreditRequest{},
		RedeemRequests: []domain.PendingCreditRequest{},
	}

	userIDs, err := s.scope.VisibleUserIDs(ctx, admin)
	if err != nil {
		return nil, err
	}
	if userIDs != nil && len(userIDs) == 0 {
		return pending, nil
	}

	profiles, err := s.profiles.ListByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	userMap, err := s.userMapFor(ctx, profiles)
	if err != nil {
		return nil, err
	}

	for _, p := range profiles {
		info := userMap[p.UserID]

		if p.ProfileStatus == domain.ProfileStatusPending {
			pending.Profiles = append(pending.Profiles, domain.PendingProfileRequest{
				UserID:    p.UserID,
				Username:  info.Username,
				Email:     info.Email,
				GameName:  p.GameName,
				CreatedAt: p.CreatedAt,
			})
		}

		switch p.CreditStatus {
		case domain.CreditStatusPending:
			pending.CreditRequests = append(pending.CreditRequests, creditRequest(p, info))
		case domain.CreditStatusPendingRedeem:
			pending.RedeemRequests = append(pending.RedeemRequests, creditRequest(p, info))
		}
	}

	sort.Slice(pending.Profiles, func(i, j int) bool {
		return pending.Profiles[i].CreatedAt.After(pending.Profiles[j].CreatedAt)
	})
	sort.Slice(pending.CreditRequests, func(i, j int) bool {
		return pending.CreditRequests[i].UpdatedAt.After(pending.CreditRequests[j].UpdatedAt)
	})
	sort.Slice(pending.RedeemRequests, func(i, j int) bool {
		return pending.RedeemRequests[i].UpdatedAt.After(pending.RedeemRequests[j].UpdatedAt)
	})

	return pending, nil
}

func creditRequest(p *domain.GameProfile, info domain.UserInfo) domain.PendingCreditRequest {
	return domain.PendingCreditRequest{
		UserID:    p.UserID,
		Username:  info.Username,
		Email:     info.Email,
		GameName:  p.GameName,
		GameID:    p.GameID,
		Amount:    p.CreditRequested,
		UpdatedAt: p.UpdatedAt,
	}
}

// userMapFor loads user data for the owners of the given profiles.
// Missing users get placeholder values rather than failing the listing.
func (s *Service) userMapFor(ctx context.Context, profiles []*domain.GameProfile) (map[string]domain.UserInfo, error) {
	idSet := make(map[string]struct{}, len(profiles))
	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		if _, ok := idSet[p.UserID]; !ok {
			idSet[p.UserID] = struct{}{}
			ids = append(ids, p.UserID)
		}
	}

	userMap := make(map[string]domain.UserInfo, len(ids))
	for _, id := range ids {
		userMap[id] = domain.UserInfo{Username: "Unknown", Email: "unknown"}
	}
	if len(ids) == 0 {
		return userMap, nil
	}

	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		userMap[u.ID] = domain.UserInfo{Username: u.Username, Email: u.Email, IsActive: u.IsActive}
	}
	return userMap, nil
}
