package service

import (
	"github.com/moogmodular/asksats-sub000/internal/models"
)

// RevealClear decides whether the viewer may see an offer's clear file.
//
// The offer's author always sees their own clear file. For everyone else the
// ask must be settled with this offer as the favourite, and then the ask kind
// decides: PUBLIC reveals to all, PRIVATE only to the ask owner, BUMP_PUBLIC
// to anyone who contributed a bump.
func RevealClear(ask *models.Ask, offer *models.Offer, viewerID string, viewerBumped bool) bool {
	if viewerID == offer.AuthorID {
		return true
	}

	settled := ask.Status == models.AskStatusSettled
	favourite := ask.FavouriteOfferID != nil && *ask.FavouriteOfferID == offer.ID
	if !settled || !favourite {
		return false
	}

	switch ask.Kind {
	case models.AskKindPublic:
		return true
	case models.AskKindPrivate:
		return viewerID == ask.OwnerID
	case models.AskKindBumpPublic:
		return viewerBumped
	}
	return false
}
