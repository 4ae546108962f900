package request

import (
	"fmt"
	"log/slog"

	"github.com/karimzahran/sakan/internal/listing"
	"github.com/karimzahran/sakan/internal/notify"
	"github.com/karimzahran/sakan/internal/rented"
)

// Service decides rental requests and applies the side effects of a decision.
type Service struct {
	requests *Repository
	listings *listing.Repository
	rentals  *rented.Repository
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewService creates a request service.
func NewService(requests *Repository, listings *listing.Repository, rentals *rented.Repository, notifier notify.Notifier, logger *slog.Logger) *Service {
	return &Service{
		requests: requests,
		listings: listings,
		rentals:  rentals,
		notifier: notifier,
		logger:   logger,
	}
}

// Create files a pending request for a listing. Only available listings
// accept requests, and owners cannot request their own listings.
func (s *Service) Create(listingID, buyerEmail, note string) (*Request, error) {
	l, err := s.listings.GetByID(listingID)
	if err != nil {
		return nil, err
	}
	if l.Status != listing.StatusAvailable {
		return nil, fmt.Errorf("listing is not available")
	}
	if l.OwnerEmail == buyerEmail {
		return nil, fmt.Errorf("cannot request your own listing")
	}

	req, err := s.requests.Create(listingID, buyerEmail, note)
	if err != nil {
		return nil, err
	}

	s.notifier.Schedule(l.OwnerEmail, "New rental request",
		fmt.Sprintf("%s requested to rent %s.", req.BuyerEmail, l.Location))

	return req, nil
}

// Approve accepts a pending request: the listing is marked rented, a rental
// record is created, and the buyer is notified. Only the listing owner may
// approve.
func (s *Service) Approve(id int64, ownerEmail string) (*Request, error) {
	req, l, err := s.loadForDecision(id, ownerEmail)
	if err != nil {
		return nil, err
	}

	if err := s.requests.SetStatus(id, StatusApproved); err != nil {
		return nil, err
	}

	if err := s.listings.UpdateStatus(l.ID, listing.StatusRented); err != nil {
		return nil, fmt.Errorf("marking listing rented: %w", err)
	}

	if _, err := s.rentals.Add(l.ID, req.BuyerEmail, l.OwnerEmail); err != nil {
		return nil, fmt.Errorf("recording rental: %w", err)
	}

	s.logger.Info("request approved", "request_id", id, "listing_id", l.ID, "buyer", req.BuyerEmail)
	s.notifier.Schedule(req.BuyerEmail, "Request approved",
		fmt.Sprintf("Your request for %s was approved.", l.Location))

	return s.requests.GetByID(id)
}

// Decline rejects a pending request and notifies the buyer. Only the listing
// owner may decline.
func (s *Service) Decline(id int64, ownerEmail string) (*Request, error) {
	req, l, err := s.loadForDecision(id, ownerEmail)
	if err != nil {
		return nil, err
	}

	if err := s.requests.SetStatus(id, StatusDeclined); err != nil {
		return nil, err
	}

	s.logger.Info("request declined", "request_id", id, "listing_id", l.ID, "buyer", req.BuyerEmail)
	s.notifier.Schedule(req.BuyerEmail, "Request declined",
		fmt.Sprintf("Your request for %s was declined.", l.Location))

	return s.requests.GetByID(id)
}

// ListForBuyer returns a buyer's requests, newest first.
func (s *Service) ListForBuyer(buyerEmail string) ([]*Request, error) {
	return s.requests.ListForBuyer(buyerEmail)
}

// ListForOwner returns pending requests across the owner's listings.
func (s *Service) ListForOwner(ownerEmail string) ([]*Request, error) {
	listings, err := s.listings.List(listing.ListOptions{OwnerEmail: ownerEmail})
	if err != nil {
		return nil, err
	}

	var all []*Request
	for _, l := range listings {
		reqs, err := s.requests.ListForListing(l.ID, StatusPending)
		if err != nil {
			return nil, err
		}
		all = append(all, reqs...)
	}
	return all, nil
}

func (s *Service) loadForDecision(id int64, ownerEmail string) (*Request, *listing.Listing, error) {
	req, err := s.requests.GetByID(id)
	if err != nil {
		return nil, nil, err
	}

	l, err := s.listings.GetByID(req.ListingID)
	if err != nil {
		return nil, nil, err
	}
	if l.OwnerEmail != ownerEmail {
		return nil, nil, fmt.Errorf("only the listing owner can decide requests")
	}

	return req, l, nil
}
