package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/YongHui-X/ecoplate/internal/domain"
)

// In-memory repositories backing the conversation and message tests. They
// mirror the store semantics the services rely on: unique conversation per
// (listing, buyer, seller), unread aggregation that skips the reader's own
// messages and completed listings, idempotent mark-read.

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int64
	users map[int64]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*domain.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	u.ID = r.seq
	u.CreatedAt = time.Now()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

type fakeListingRepo struct {
	mu       sync.Mutex
	seq      int64
	listings map[int64]*domain.Listing
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{listings: make(map[int64]*domain.Listing)}
}

func (r *fakeListingRepo) Create(ctx context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	l.ID = r.seq
	l.CreatedAt = time.Now()
	cp := *l
	r.listings[l.ID] = &cp
	return nil
}

func (r *fakeListingRepo) GetByID(ctx context.Context, id int64) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *fakeListingRepo) List(ctx context.Context, f domain.ListingFilter) ([]*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Listing
	for _, l := range r.listings {
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeListingRepo) Update(ctx context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	r.listings[l.ID] = &cp
	return nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	seq      int64
	products map[int64]*domain.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[int64]*domain.Product)}
}

func (r *fakeProductRepo) Create(ctx context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	p.ID = r.seq
	p.CreatedAt = time.Now()
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) ListForUser(ctx context.Context, userID int64) ([]*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Product
	for _, p := range r.products {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Update(ctx context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, id)
	return nil
}

type convKey struct {
	listingID, buyerID, sellerID int64
}

type fakeConversationRepo struct {
	mu    sync.Mutex
	seq   int64
	byKey map[convKey]*domain.Conversation
	byID  map[int64]*domain.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		byKey: make(map[convKey]*domain.Conversation),
		byID:  make(map[int64]*domain.Conversation),
	}
}

func (r *fakeConversationRepo) GetOrCreate(ctx context.Context, listingID, buyerID, sellerID int64) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := convKey{listingID, buyerID, sellerID}
	if c, ok := r.byKey[key]; ok {
		cp := *c
		return &cp, nil
	}
	r.seq++
	c := &domain.Conversation{
		ID:        r.seq,
		ListingID: listingID,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	r.byKey[key] = c
	r.byID[c.ID] = c
	cp := *c
	return &cp, nil
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeConversationRepo) ListForUser(ctx context.Context, userID int64) ([]*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Conversation
	for _, c := range r.byID {
		if c.HasParticipant(userID) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) Touch(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		c.UpdatedAt = time.Now()
	}
	return nil
}

func (r *fakeConversationRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	seq      int64
	messages []*domain.Message

	convs    *fakeConversationRepo
	listings *fakeListingRepo
}

func newFakeMessageRepo(convs *fakeConversationRepo, listings *fakeListingRepo) *fakeMessageRepo {
	return &fakeMessageRepo{convs: convs, listings: listings}
}

func (r *fakeMessageRepo) Create(ctx context.Context, m *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	m.ID = r.seq
	m.CreatedAt = time.Now()
	cp := *m
	r.messages = append(r.messages, &cp)
	return nil
}

func (r *fakeMessageRepo) ListForConversation(ctx context.Context, conversationID int64) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Message
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].ConversationID == conversationID {
			cp := *r.messages[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) LatestPerConversation(ctx context.Context, userID int64) (map[int64]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]*domain.Message)
	for _, m := range r.messages {
		conv := r.convs.byID[m.ConversationID]
		if conv == nil || !conv.HasParticipant(userID) {
			continue
		}
		if prev, ok := out[m.ConversationID]; !ok || m.ID > prev.ID {
			cp := *m
			out[m.ConversationID] = &cp
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) MarkRead(ctx context.Context, conversationID, readerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.SenderID != readerID {
			m.IsRead = true
		}
	}
	return nil
}

// unread counts a message when the user participates in its conversation, did
// not author it, it is unread, and the listing is not completed.
func (r *fakeMessageRepo) unread(userID int64) map[int64]int {
	out := make(map[int64]int)
	for _, m := range r.messages {
		conv := r.convs.byID[m.ConversationID]
		if conv == nil || !conv.HasParticipant(userID) {
			continue
		}
		if m.SenderID == userID || m.IsRead {
			continue
		}
		if l := r.listings.listings[conv.ListingID]; l != nil && l.Status == domain.ListingCompleted {
			continue
		}
		out[m.ConversationID]++
	}
	return out
}

func (r *fakeMessageRepo) UnreadTotalFor(ctx context.Context, userID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, n := range r.unread(userID) {
		total += n
	}
	return total, nil
}

func (r *fakeMessageRepo) UnreadByConversation(ctx context.Context, userID int64) (map[int64]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unread(userID), nil
}

type fakePointsRepo struct {
	mu   sync.Mutex
	seq  int64
	txns []*domain.PointTransaction
}

func newFakePointsRepo() *fakePointsRepo {
	return &fakePointsRepo{}
}

func (r *fakePointsRepo) Award(ctx context.Context, userID int64, points int, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.txns = append(r.txns, &domain.PointTransaction{
		ID:        r.seq,
		UserID:    userID,
		Points:    points,
		Reason:    reason,
		CreatedAt: time.Now(),
	})
	return nil
}

func (r *fakePointsRepo) BalanceFor(ctx context.Context, userID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, tx := range r.txns {
		if tx.UserID == userID {
			total += tx.Points
		}
	}
	return total, nil
}

func (r *fakePointsRepo) ListFor(ctx context.Context, userID int64) ([]*domain.PointTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.PointTransaction
	for _, tx := range r.txns {
		if tx.UserID == userID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}
